// Package kvarray registers the k6/x/kvarray module.
package kvarray

import (
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-kvarray/kv"
)

// init registers the kvarray module with the k6 runtime.
func init() {
	modules.Register("k6/x/kvarray", kv.New())
}
