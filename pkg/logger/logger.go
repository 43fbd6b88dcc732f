package logger

import (
	"io"
	"log"
	"os"
)

var (
	InfoLogger  = log.New(os.Stderr, "", log.LstdFlags)
	WarnLogger  = log.New(os.Stderr, "Warning: ", log.LstdFlags)
	ErrorLogger = log.New(os.Stderr, "Error: ", log.LstdFlags)
	DebugLogger = log.New(io.Discard, "Debug: ", log.LstdFlags|log.Lshortfile)
)

// Init points the loggers at w. Debug output is only written when verbose is set.
func Init(w io.Writer, verbose bool) {
	InfoLogger.SetOutput(w)
	WarnLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
	if verbose {
		DebugLogger.SetOutput(w)
	} else {
		DebugLogger.SetOutput(io.Discard)
	}
}

func Info(format string, v ...interface{}) {
	InfoLogger.Printf(format, v...)
}

func Warn(format string, v ...interface{}) {
	WarnLogger.Printf(format, v...)
}

// Error logs err with a short description of what was being attempted.
func Error(err error, context string) {
	ErrorLogger.Printf("%s: %v", context, err)
}

func Debug(format string, v ...interface{}) {
	DebugLogger.Printf(format, v...)
}
