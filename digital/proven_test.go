//go:build !unproven

package digital_test

import (
	"testing"

	"github.com/hubertat/pinkit/digital"
)

func TestUnprovenDisabled(t *testing.T) {
	if digital.Unproven {
		t.Error("Unproven = true in a build without the unproven tag")
	}
}
