//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target - build the binary
var Default = Build

// Build builds the ftpls binary into bin/
func Build() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", "bin/ftpls", "./cmd/ftpls")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}

type Test mg.Namespace

// All runs the unit tests
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs the unit tests with the race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Coverage writes coverage.out and prints per-function coverage
func (Test) Coverage() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Fuzz runs the listing dispatcher fuzz test for 30 seconds
func Fuzz() error {
	return sh.RunV("go", "test", "-run=^$", "-fuzz=FuzzParse", "-fuzztime=30s", "./listing")
}

type Lint mg.Namespace

// All runs every lint check
func (Lint) All() {
	mg.SerialDeps(Lint.Vet, Lint.Golangci)
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint if it is installed
func (Lint) Golangci() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println("golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "--timeout=5m", "./...")
}

// QA runs lint and tests
func QA() {
	mg.SerialDeps(Lint.All, Test.All)
}
