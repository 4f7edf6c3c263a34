package constants

import (
	"regexp"
	"testing"
)

func TestTimeFormat(t *testing.T) {
	// Check that a time zone component exists in the global time format.
	re := regexp.MustCompile("^.*0700$")
	if !re.MatchString(TimeFormatYearSecondsTZ) {
		t.Fatal("Unexpected time format - missing time zone component.")
	}
}

func TestExitCodesAreDistinct(t *testing.T) {
	codes := []int{ExitCodeOK, ExitCodeSourceUnreachable, ExitCodeTargetUnreachable, ExitCodeRunFailure, ExitCodeConfigError}
	seen := make(map[int]struct{})
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			t.Fatalf("exit code %v is used more than once", c)
		}
		seen[c] = struct{}{}
	}
	if ExitCodeOK != 0 {
		t.Fatalf("expected success exit code 0; got %v", ExitCodeOK)
	}
}
