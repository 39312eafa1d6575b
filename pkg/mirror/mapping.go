package mirror

import (
	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/wire"
)

// SyncableKinds are the response kinds mirrored to the store.
var SyncableKinds = []string{
	wire.KindBrightnessGet,
	wire.KindSleepTimeoutGet,
	wire.KindSleepTimeoutSet,
	wire.KindStorageGet,
}

// PatchFor maps a response to a config patch. It returns false for
// responses that carry nothing to mirror.
func PatchFor(resp *wire.Response) (configstore.Patch, bool) {
	if !resp.IsSuccess() {
		return nil, false
	}
	switch resp.Kind {
	case wire.KindBrightnessGet:
		v, ok := resp.Int(wire.FieldBrightness)
		if !ok {
			return nil, false
		}
		return configstore.Patch{configstore.FieldBrightness: int(v)}, true

	case wire.KindSleepTimeoutGet, wire.KindSleepTimeoutSet:
		v, ok := resp.Int(wire.FieldTimeout)
		if !ok {
			return nil, false
		}
		return configstore.Patch{configstore.FieldSleepTimeout: int(v)}, true

	case wire.KindStorageGet:
		total, ok1 := resp.Int(wire.FieldTotal)
		used, ok2 := resp.Int(wire.FieldUsed)
		free, ok3 := resp.Int(wire.FieldFree)
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return configstore.Patch{configstore.FieldStorage: configstore.Storage{
			Total: int(total), Used: int(used), Free: int(free),
		}}, true
	}
	return nil, false
}
