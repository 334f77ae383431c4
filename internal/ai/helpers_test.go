package ai

import "fmt"

func sprintfBody(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
