package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInteractiveEnvironment_CI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.False(t, IsInteractiveEnvironment())
}

func TestProgressManager_NonInteractiveWriter(t *testing.T) {
	pm := NewProgressManager().(*ProgressManagerImpl)

	var buf bytes.Buffer
	pm.SetWriter(&buf)
	assert.False(t, pm.IsInteractive())

	pm.Initialize(3)
	pm.Start()
	pm.Update(1, 3)
	pm.Update(3, 3)
	pm.Complete(true)
	pm.Close()

	assert.Empty(t, buf.String(), "no bar is drawn off a terminal")
}

func TestProgressManager_BarCountsMethods(t *testing.T) {
	pm := NewProgressManager().(*ProgressManagerImpl)

	var buf bytes.Buffer
	pm.SetWriter(&buf)
	bar := pm.createProgressBar(4)
	_ = bar.Add(1)
	_ = bar.Finish()

	assert.Contains(t, buf.String(), "methods")
}
