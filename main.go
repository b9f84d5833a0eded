package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"
)

func main() {
	frequency := flag.Float64("frequency", math.NaN(), "Frequency of the sine modulation (try 1.1)")
	amplitude := flag.Float64("amplitude", math.NaN(), "Amplitude of the Z modulation in mm (try 0.6; negative inverts the phase)")
	output := flag.String("output", "", "Path to the output file (default: overwrite the input)")
	segmentLength := flag.Float64("segment-length", 0, "Split infill moves into segments of this length in mm (0 keeps lines intact)")
	preview := flag.String("preview", "", "Also write a top-down PNG preview of the modulated infill")
	logPath := flag.String("log", "", "Write a processing log to this file")
	flag.Parse()

	if flag.NArg() != 1 || math.IsNaN(*frequency) || math.IsNaN(*amplitude) {
		flag.Usage()
		os.Exit(1)
	}
	inputFile := flag.Arg(0)

	logger := log.New(io.Discard, "", log.LstdFlags)
	if *logPath != "" {
		logFile, err := os.Create(*logPath)
		if err != nil {
			log.Fatalf("failed to create log file: %v", err)
		}
		defer logFile.Close()
		logger = log.New(logFile, "", log.LstdFlags)
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		log.Fatalf("failed to read G-code: %v", err)
	}
	logger.Printf("processing %s (frequency=%g amplitude=%g)", inputFile, *frequency, *amplitude)

	result := ProcessGCode(strings.Split(string(data), "\n"), Options{
		Frequency:     *frequency,
		Amplitude:     *amplitude,
		SegmentLength: *segmentLength,
		Log:           logger,
	})

	outputFile := *output
	if outputFile == "" {
		outputFile = inputFile
	}
	if err = os.WriteFile(outputFile, []byte(strings.Join(result.Lines, "\n")), 0644); err != nil {
		log.Fatalf("failed to write output file: %v", err)
	}
	logger.Printf("saved modified G-code to %s", outputFile)

	if *preview != "" {
		if err = SavePreview(*preview, result.Infill); err != nil {
			log.Fatalf("failed to write preview: %v", err)
		}
	}

	fmt.Printf("Modulated %d infill moves, written to %s\n", result.Modified, outputFile)
}
