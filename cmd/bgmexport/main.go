package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"go-chiptodo/bgm"
	"go-chiptodo/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "ports":
		err = listPorts()
	case "mid":
		err = exportMIDI(os.Args[2:])
	case "wav":
		err = exportWAV(os.Args[2:])
	default:
		usage()
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Background music export")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  ports                      - List MIDI output ports")
	fmt.Println("  mid [-o file] [-loops n]   - Write the loop as a Standard MIDI File")
	fmt.Println("  wav [-o file] [-loops n]   - Render the loop to a 16-bit WAV")
}

func listPorts() error {
	defer midi.CloseDriver()
	names, err := midi.OutPorts()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No MIDI output ports")
		return nil
	}
	for i, n := range names {
		fmt.Printf("  [%d] %s\n", i, n)
	}
	return nil
}

func exportMIDI(args []string) error {
	fs := flag.NewFlagSet("mid", flag.ExitOnError)
	out := fs.String("o", "bgm.mid", "output file")
	loops := fs.Int("loops", 1, "loop passes")
	fs.Parse(args)

	if err := midi.ExportFile(bgm.Default, *out, *loops); err != nil {
		return err
	}
	report(*out, *loops)
	return nil
}

func exportWAV(args []string) error {
	fs := flag.NewFlagSet("wav", flag.ExitOnError)
	out := fs.String("o", "bgm.wav", "output file")
	loops := fs.Int("loops", 1, "loop passes")
	rate := fs.Int("rate", 44100, "sample rate")
	fs.Parse(args)

	samples := bgm.Bounce(bgm.Default, *rate, *loops)
	if err := bgm.WriteWAVFile(*out, samples, *rate); err != nil {
		return err
	}
	report(*out, *loops)
	return nil
}

func report(path string, loops int) {
	if loops < 1 {
		loops = 1
	}
	length := time.Duration(float64(loops) * bgm.Default.LoopSeconds() * float64(time.Second))
	size := "?"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Printf("%s: %s, %d loop(s), %s\n", path, durafmt.Parse(length).LimitFirstN(2), loops, size)
}
