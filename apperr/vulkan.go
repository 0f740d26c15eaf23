package apperr

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Vk converts a Vulkan result into an error describing what was attempted. It
// returns nil for vk.Success.
func Vk(res vk.Result, what string) error {
	if res == vk.Success {
		return nil
	}
	return errors.WrapWithDepthf(1, vk.Error(res), "%s", what)
}

// VkFatal is like Vk but marks the error as belonging to the fatal tier.
func VkFatal(res vk.Result, what string) error {
	if res == vk.Success {
		return nil
	}
	return errors.NewAssertionErrorWithWrappedErrf(vk.Error(res), "%s", what)
}
