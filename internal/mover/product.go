package mover

import (
	"strings"
	"unicode"

	"github.com/willdurand/scriptworker-scripts/internal/tasks"
)

// dynamicFlavors are build flavors that ship under their own product
// identity even though the underlying application is something else.
var dynamicFlavors = []string{"devedition", "pinebuild"}

// ProductName resolves the product identity used in template keys, release
// paths and update manifests. push-to-releases tasks name the product
// directly in the payload; everything else derives it from the release
// properties, collapsing the dynamic build flavors to their own product
// name. The flavor name's casing follows the app name's: "Firefox" yields
// "Devedition", "firefox" yields "devedition".
func ProductName(task *tasks.Task, action tasks.Action, lowercaseAppName bool) (string, error) {
	if action.IsRelease() {
		if task.Payload.Product == "" {
			return "", tasks.NewVerificationError("product not found in task payload")
		}
		return strings.ToLower(task.Payload.Product), nil
	}

	props, err := task.ReleaseProps()
	if err != nil {
		return "", err
	}
	if props.AppName == "" {
		return "", tasks.NewVerificationError("appName not found in task payload")
	}

	appName := props.AppName
	if lowercaseAppName {
		appName = strings.ToLower(appName)
	}

	for _, flavor := range dynamicFlavors {
		if strings.Contains(props.StagePlatform, flavor) {
			if unicode.IsUpper(rune(appName[0])) {
				return strings.ToUpper(flavor[:1]) + flavor[1:], nil
			}
			return flavor, nil
		}
	}

	return appName, nil
}
