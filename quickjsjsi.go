package quickjsjsi

import (
	"github.com/wxiaoguang/quickjs-jsi/runtime"
)

// MakeRuntime creates a runtime on a new engine runtime and context.
func MakeRuntime(opts ...runtime.Option) (*runtime.Runtime, error) {
	return runtime.New(opts...)
}
