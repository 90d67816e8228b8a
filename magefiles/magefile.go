//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Build mg.Namespace
type Run mg.Namespace

// Compiles every package in the module.
func (Build) All() error {
	return sh.RunV("go", "build", "./...")
}

// Runs the full test suite.
func (Build) Test() error {
	return sh.RunV("go", "test", "./...")
}

// Runs go vet across the module.
func (Build) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Syncs go.mod with the source tree.
func (Build) Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// Builds and starts the demo player.
func (Run) Player() error {
	mg.Deps(Build.All)
	return sh.RunV("go", "run", ".")
}
