package cmd

import "github.com/ardnew/bthn/lang"

var (
	ErrOpenSource  = lang.NewError("open source")
	ErrDefine      = lang.NewError("invalid definition")
	ErrYAMLMarshal = lang.NewError("marshal YAML")
	ErrWriteOutput = lang.NewError("write output")
	ErrWriteConfig = lang.NewError("write configuration file")
	ErrFileExists  = lang.NewError("file exists (use --force to overwrite)")
)
