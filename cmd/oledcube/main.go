// Command oledcube drives a 128x64 SSD1306 OLED over I²C and renders a
// rotating wireframe cube on it.
//
// Hardware Setup:
//
// Connect the display to the I²C pins:
//
//	Display    Raspberry Pi
//	GND        GND
//	VCC        3.3V
//	SCL        GPIO3 (I2C1 SCL)
//	SDA        GPIO2 (I2C1 SDA)
//
// Simulation mode (-s) records the bus traffic instead of opening a bus, so
// the program runs on any machine. Combined with -o, the last frame is
// written to a PNG file.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/flavioheleno/oledcube/internal/config"
	"github.com/flavioheleno/oledcube/internal/version"
	"github.com/sirupsen/logrus"
)

const configSuffix = "oledcube"

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	// region Flags and Commands definition

	// Debug Mode
	debugMode := flag.Bool("d", false, "Enable debug mode")

	// Simulation Mode
	simulationMode := flag.Bool("s", false, "Enable simulation mode")

	// User config dir
	defaultConfigDir := "./." + configSuffix
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}
	configDir := flag.String("c", defaultConfigDir, "Location of oledcube config folder")

	// Usage
	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] [COMMAND]\n", mainCommand)
		fmt.Printf("\nA rotating cube on an I²C OLED display\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		fmt.Printf("  run       Run a demo\n")
		fmt.Printf("  version   Show the version number\n")
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}

	// run command
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	demoName := runCmd.String("demo", "cube", "Demo to run: "+demoNames())
	frames := runCmd.Int("frames", 0, "Number of cube frames to render, 0 to run until interrupted")
	output := runCmd.String("o", "", "Write the last frame to this PNG file")

	runCmd.Usage = func() {
		fmt.Printf("\nUsage: %s run [OPTIONS]\n", mainCommand)
		fmt.Printf("\nRun a demo on the display\n")
		fmt.Printf("\nOptions:\n")
		runCmd.PrintDefaults()
	}

	// version command
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	versionCmd.Usage = func() {
		fmt.Printf("\nUsage: %s version\n", mainCommand)
		fmt.Printf("\nShow the version information\n")
	}

	// endregion

	// region Flags and Commands Parsing
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	switch flag.Arg(0) {
	case "run":
		runCmd.Parse(flag.Args()[1:])
		if runCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			runCmd.Usage()
			os.Exit(1)
		}
		if _, ok := demos[*demoName]; !ok {
			fmt.Printf("\nUnknown demo: %s\n", *demoName)
			runCmd.Usage()
			os.Exit(1)
		}
	case "version":
		versionCmd.Parse(flag.Args()[1:])
		if versionCmd.NArg() > 0 {
			fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
			versionCmd.Usage()
			os.Exit(1)
		}
	default:
		fmt.Printf("\n%s is not an oledcube command\n", flag.Args()[0])
		flag.Usage()
		os.Exit(1)
	}
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	if versionCmd.Parsed() {
		fmt.Printf("Version %s\n", version.AppVersion.String())
		return
	}

	cfg, err := config.Load(*configDir, *debugMode, *simulationMode)
	if err != nil {
		logrus.Fatalf("Unable to load configuration: %v", err)
	}

	a, err := newApp(cfg, *frames)
	if err != nil {
		logrus.Fatalf("Unable to start display: %v", err)
	}

	// Listen stop signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	go func() {
		sig := <-ch
		logrus.Infof("Received signal: %v", sig)
		a.Stop()
	}()

	runErr := a.Run(*demoName)
	if *output != "" {
		if err := a.SavePNG(*output); err != nil {
			logrus.Errorf("Unable to save frame: %v", err)
		} else {
			logrus.Infof("Last frame saved to %s", *output)
		}
	}
	a.Close()

	if runErr != nil {
		logrus.Fatalf("Demo %s failed: %v", *demoName, runErr)
	}
}

func demoNames() string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
