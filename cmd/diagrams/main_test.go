package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The generators call log.Fatal on failure and write into the working directory, so
// these only check that they are wired.
func TestGenerateArchitectureDiagram(t *testing.T) {
	assert.NotNil(t, generateArchitectureDiagram)
}

func TestGenerateComponentDiagram(t *testing.T) {
	assert.NotNil(t, generateComponentDiagram)
}

func TestMainFunc(t *testing.T) {
	assert.NotNil(t, main)
}
