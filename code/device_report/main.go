// Command device_report prints the Vulkan extensions and layers of the
// platform and explains for every GPU whether the renderer could use it.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/capability"
	"vkframes/device"
	"vkframes/logging"
	"vkframes/renderer"
	"vkframes/window"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.BoolVar(&args.debug, "debug", false, "Enable Vulkan validation layers")
	flag.BoolVar(&args.verbose, "v", false, "List every extension and layer")
}

var args struct {
	debug   bool
	verbose bool
}

const title = "Vulkan Tutorial: Device report"

func main() {
	flag.Parse()

	logger := logging.New(os.Stderr, args.debug)

	if err := run(os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, logger *slog.Logger) error {
	if err := window.Init(logger); err != nil {
		return errors.Wrap(err, "initWindow")
	}
	defer window.Terminate()

	win, err := window.New(window.Config{
		Width:  320,
		Height: 240,
		Title:  title,
		Logger: logger,
	})
	if err != nil {
		return errors.Wrap(err, "initWindow")
	}
	defer win.Destroy()

	instance, err := renderer.NewInstance(title, args.debug, win, logger)
	if err != nil {
		return errors.Wrap(err, "createInstance")
	}
	defer instance.Destroy()

	surface, err := win.CreateSurface(instance.Handle)
	if err != nil {
		return errors.Wrap(err, "createSurface")
	}
	defer vk.DestroySurface(instance.Handle, surface, nil)

	if args.verbose {
		if err := reportPlatform(out); err != nil {
			return err
		}
	}

	return reportDevices(out, instance.Handle, surface, logger)
}

func reportPlatform(out io.Writer) error {
	extensions, err := capability.InstanceExtensions()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Instance extensions (%d):\n", len(extensions))
	for _, name := range extensions {
		fmt.Fprintf(out, "\t%s\n", name)
	}

	layers, err := capability.InstanceLayers()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Layers (%d):\n", len(layers))
	for _, name := range layers {
		fmt.Fprintf(out, "\t%s\n", name)
	}

	return nil
}

func reportDevices(
	out io.Writer,
	instance vk.Instance,
	surface vk.Surface,
	logger *slog.Logger,
) error {
	devices, err := device.Enumerate(instance)
	if err != nil {
		return err
	}

	requirements := device.DefaultRequirements()
	candidates := make([]device.Candidate, 0, len(devices))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tTYPE\tFORMATS\tPRESENT MODES\tSUITABLE")
	for _, handle := range devices {
		c := device.Inspect(handle, surface, logger)
		candidates = append(candidates, c)

		suitable := "yes"
		if reasons := requirements.Unsuitable(c); len(reasons) > 0 {
			suitable = "no: " + strings.Join(reasons, ", ")
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			c.Name,
			deviceType(c.Type),
			len(c.Support.Formats),
			len(c.Support.PresentModes),
			suitable,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if selected, ok := device.PickFirst(candidates, requirements); ok {
		fmt.Fprintf(out, "\nThe renderer would use %s.\n", selected.Name)
	} else {
		fmt.Fprintln(out, "\nNo device satisfies the renderer.")
	}

	return nil
}

func deviceType(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "other"
}
