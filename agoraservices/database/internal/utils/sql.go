package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var (
	paramFinder = regexp.MustCompile(`(?m):\w+`)
	spaceFinder = regexp.MustCompile(`\s+`)
)

// Prepare rewrites named `:param` placeholders into the positional style the
// driver expects and returns the ordered arguments. Slice values expand into
// one placeholder per element.
func Prepare(statement string, parameters map[string]any, numberedParams bool) (string, []any, error) {
	statement = strings.TrimSpace(spaceFinder.ReplaceAllString(statement, " "))

	args := []any{}
	counter := 0
	paramBuilder := func() string {
		counter++
		if !numberedParams {
			return "?"
		}

		return fmt.Sprintf("$%d", counter)
	}

	var missing []string
	newStatement := paramFinder.ReplaceAllStringFunc(statement, func(s string) string {
		parameterValue, found := parameters[s]
		if !found {
			missing = append(missing, s)
			return s
		}

		if parameterValue != nil {
			rt := reflect.TypeOf(parameterValue)
			isBytes := rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8
			if !isBytes && (rt.Kind() == reflect.Array || rt.Kind() == reflect.Slice) {
				localArgs := []string{}

				valueOf := reflect.ValueOf(parameterValue)
				for i := range valueOf.Len() {
					localArgs = append(localArgs, paramBuilder())
					args = append(args, valueOf.Index(i).Interface())
				}

				return strings.Join(localArgs, ", ")
			}
		}

		args = append(args, parameterValue)

		return paramBuilder()
	})

	if len(missing) > 0 {
		return "", nil, fmt.Errorf("missing parameters: %s", strings.Join(missing, ", "))
	}

	return newStatement, args, nil
}
