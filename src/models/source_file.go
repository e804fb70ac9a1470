package models

import "io"

// SourceFile is one uploaded export file, as handed to a parser.
type SourceFile struct {
	Name   string
	Reader io.Reader
}
