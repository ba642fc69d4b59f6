package tasks

import (
	"fmt"
	"regexp"
	"strings"
)

var scopeValuePattern = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

// ScopePrefixes expands the configured scope prefixes into the full prefixes
// for one sub-namespace, e.g. "project:releng:beetmover:" and "action" become
// "project:releng:beetmover:action:".
func ScopePrefixes(prefixes []string, namespace string) []string {
	out := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		if !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		out = append(out, fmt.Sprintf("%s%s:", prefix, namespace))
	}
	return out
}

// extractScopes returns the task scopes matching any of the prefixes. All
// matches must share a single prefix; scopes from two different deployments
// on one task are ambiguous and rejected outright.
func extractScopes(scopes, prefixes []string) ([]string, error) {
	var matched []string
	for _, scope := range scopes {
		for range prefixesMatching(scope, prefixes) {
			matched = append(matched, scope)
		}
	}

	for _, prefix := range prefixes {
		all := len(matched) > 0
		for _, scope := range matched {
			if !strings.HasPrefix(scope, prefix) {
				all = false
				break
			}
		}
		if all {
			return matched, nil
		}
	}

	return nil, verificationErrorf(
		"scopes must exist and all have the same prefix; given scopes: %v, allowed prefixes: %v",
		matched, prefixes)
}

func prefixesMatching(scope string, prefixes []string) []string {
	var out []string
	for _, prefix := range prefixes {
		if strings.HasPrefix(scope, prefix) {
			out = append(out, prefix)
		}
	}
	return out
}

func scopeValues(scopes, prefixes []string) []string {
	var values []string
	for _, scope := range scopes {
		for range prefixesMatching(scope, prefixes) {
			parts := strings.Split(scope, ":")
			values = append(values, parts[len(parts)-1])
		}
	}
	return values
}

// ResolveAction extracts the single action scope from the task and returns
// the corresponding Action. All violations found are reported in one error.
func ResolveAction(scopes, configPrefixes []string) (Action, error) {
	value, err := resolveScopeValue(scopes, configPrefixes, "action")
	if err != nil {
		return "", err
	}
	return ParseAction(value)
}

// ResolveResource extracts the single resource scope of the given type
// ("bucket", "apt-repo", ...) and checks it against the set of resources
// currently enabled in the clouds configuration.
func ResolveResource(scopes, configPrefixes []string, resourceType string, available map[string]bool) (string, error) {
	prefixes := ScopePrefixes(configPrefixes, resourceType)
	matched, err := extractScopes(scopes, prefixes)
	if err != nil {
		return "", err
	}

	values := scopeValues(matched, prefixes)

	var messages []string
	if len(values) != 1 {
		messages = append(messages, "only one resource can be used")
	}

	resource := values[0]
	if !scopeValuePattern.MatchString(resource) {
		messages = append(messages, fmt.Sprintf("resource name %q is malformed", resource))
	}
	if !available[resource] {
		messages = append(messages, fmt.Sprintf("invalid resource scope: %s", resource))
	}

	if len(messages) > 0 {
		return "", NewVerificationError(messages...)
	}
	return resource, nil
}

func resolveScopeValue(scopes, configPrefixes []string, namespace string) (string, error) {
	prefixes := ScopePrefixes(configPrefixes, namespace)
	matched, err := extractScopes(scopes, prefixes)
	if err != nil {
		return "", err
	}

	values := scopeValues(matched, prefixes)

	var messages []string
	if len(values) != 1 {
		messages = append(messages, fmt.Sprintf("only one %s scope can be used", namespace))
	}

	value := values[0]
	if !scopeValuePattern.MatchString(value) {
		messages = append(messages, fmt.Sprintf("%s name %q is malformed", namespace, value))
	}

	if len(messages) > 0 {
		return "", NewVerificationError(messages...)
	}
	return value, nil
}
