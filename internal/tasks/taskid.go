package tasks

import (
	"fmt"
	"regexp"
	"strings"
)

// taskIDPattern matches a taskcluster slugid: 22 characters of url-safe
// base64 encoding a v4 UUID.
var taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8}[Q-T][A-Za-z0-9_-][CGKOSWaeimquy26-][A-Za-z0-9_-]{10}[AQgw]$`)

// ValidateTaskID returns the taskId unchanged when it is well formed.
func ValidateTaskID(taskID string) (string, error) {
	if !taskIDPattern.MatchString(taskID) {
		return "", fmt.Errorf("no valid taskId found in %q", taskID)
	}
	return taskID, nil
}

// TaskIDFromPath extracts the taskId from a full artifact path such as
// "work/cot/eSzfNqMZT_mSiQQXu8hyqg/public/build/target.mozinfo.json".
func TaskIDFromPath(fullPath string) (string, error) {
	segments := strings.Split(fullPath, "/")
	for i, segment := range segments {
		if segment == "cot" && i+1 < len(segments) {
			if taskID, err := ValidateTaskID(segments[i+1]); err == nil {
				return taskID, nil
			}
			break
		}
	}
	return "", verificationErrorf("taskId unable to be extracted from path %s", fullPath)
}
