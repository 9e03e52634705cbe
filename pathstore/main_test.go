package pathstore

import (
	"os"
	"testing"

	"github.com/ten-framework/ten-go/hk"
)

// TestMain starts the shared housekeeper so stores' sweep registrations
// actually run; in the full engine this is started once at App init.
func TestMain(m *testing.M) {
	go hk.DefaultHK.Run()
	hk.WaitStarted()
	os.Exit(m.Run())
}
