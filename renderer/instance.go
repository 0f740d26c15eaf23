package renderer

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkframes/apperr"
	"vkframes/capability"
	"vkframes/logging"
	"vkframes/window"
)

// Instance is the Vulkan instance together with the validation message
// callback registered on it.
type Instance struct {
	Handle vk.Instance

	// Layers are the enabled validation layers, empty unless debugging.
	Layers []string

	debugCallback vk.DebugReportCallback
}

// instanceExtensions returns the extensions an instance must enable: the ones
// the window system needs plus debug report when debugging.
func instanceExtensions(windowExtensions []string, debug bool) []string {
	extensions := append([]string{}, windowExtensions...)
	if debug {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	return extensions
}

// NewInstance loads the Vulkan entry points through GLFW, checks the required
// extensions and layers and creates the instance. The instance level function
// pointers are resolved right after creation. Validation layers are enabled
// when debug is true.
func NewInstance(appName string, debug bool, win *window.Window, logger *slog.Logger) (*Instance, error) {
	vk.SetGetInstanceProcAddr(window.InstanceProcAddr())

	if err := vk.Init(); err != nil {
		return nil, apperr.Wrap(err, apperr.InstanceCreationFailed,
			"failed to init Vulkan Go")
	}

	extensions := instanceExtensions(win.RequiredInstanceExtensions(), debug)
	if err := capability.CheckInstanceExtensions(extensions); err != nil {
		return nil, err
	}

	inst := &Instance{}
	if debug {
		if err := capability.CheckValidationLayers(capability.ValidationLayers); err != nil {
			return nil, err
		}
		inst.Layers = capability.ValidationLayers
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   appName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "No Engine\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}

	enabledExtensions := capability.NullTerminated(extensions)
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(enabledExtensions)),
		PpEnabledExtensionNames: enabledExtensions,
	}

	if len(inst.Layers) > 0 {
		layers := capability.NullTerminated(inst.Layers)
		createInfo.EnabledLayerCount = uint32(len(layers))
		createInfo.PpEnabledLayerNames = layers
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance)); err != nil {
		return nil, apperr.Wrap(err, apperr.InstanceCreationFailed,
			"failed to create Vulkan instance")
	}
	inst.Handle = instance

	if err := vk.InitInstance(instance); err != nil {
		inst.Destroy()
		return nil, apperr.Wrap(err, apperr.InstanceCreationFailed,
			"failed to load instance functions")
	}

	if debug {
		if err := inst.registerValidationCallback(logger); err != nil {
			logger.Warn("validation messages will not be logged", "error", err)
		}
	}

	logger.Debug("instance created",
		"extensions", extensions,
		"layers", inst.Layers,
	)

	return inst, nil
}

func (i *Instance) registerValidationCallback(logger *slog.Logger) error {
	dbgCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit) |
			vk.DebugReportFlags(vk.DebugReportWarningBit) |
			vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit),
		PfnCallback: logging.ValidationCallback(logger),
	}

	var dbg vk.DebugReportCallback
	res := vk.CreateDebugReportCallback(i.Handle, &dbgCreateInfo, nil, &dbg)
	if err := vk.Error(res); err != nil {
		return errors.Wrap(err, "vk.CreateDebugReportCallback")
	}
	i.debugCallback = dbg

	return nil
}

// Destroy releases the validation callback and the instance.
func (i *Instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.Handle, i.debugCallback, nil)
		i.debugCallback = vk.NullDebugReportCallback
	}
	vk.DestroyInstance(i.Handle, nil)
}
