package logging

import (
	"context"
	"log/slog"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// ValidationLevel maps debug report flags to a log level.
func ValidationLevel(flags vk.DebugReportFlags) slog.Level {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return slog.LevelError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0,
		flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// ValidationCallback returns a debug report callback which forwards validation
// layer messages to logger.
func ValidationCallback(logger *slog.Logger) vk.DebugReportCallbackFunc {
	return func(
		flags vk.DebugReportFlags,
		objectType vk.DebugReportObjectType,
		object uint64,
		location uint,
		messageCode int32,
		pLayerPrefix string,
		pMessage string,
		pUserData unsafe.Pointer,
	) vk.Bool32 {
		logger.Log(context.Background(), ValidationLevel(flags), "validation layer",
			"layer", pLayerPrefix,
			"code", messageCode,
			"message", pMessage,
		)
		return vk.Bool32(vk.False)
	}
}
