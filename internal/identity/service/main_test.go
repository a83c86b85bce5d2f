package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "identity-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}
