package main

import (
	"fmt"
	"os"

	"boardsync/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func selectFormatter(name string) error {
	f, err := format.ForName(name)
	if err != nil {
		return err
	}
	outputFormatter = f
	return nil
}

func writeOut(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(formatStr string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, formatStr, args...)
	return err
}
