package telemetry

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

// Catalogue is the retained description of a node's registry, published as
// CBOR on cosmos/{node}/catalogue. Remote nodes use it to build a mirror.
type Catalogue struct {
	Node      string    `json:"node" cbor:"1,keyasint"`
	Generated float64   `json:"generated" cbor:"2,keyasint"` // MJD
	Entries   []ns.Info `json:"entries" cbor:"3,keyasint"`
}

// Decoding limits for catalogues from other nodes. A catalogue is a map
// holding an array of maps, three levels deep.
const (
	catalogueMaxNesting = 4
	catalogueMaxPairs   = 16
	catalogueMaxEntries = 1 << 16
)

// Core deterministic encoding: equal catalogues encode to equal bytes.
var (
	catalogueEnc cbor.EncMode
	catalogueDec cbor.DecMode
)

func init() {
	var err error
	catalogueEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("telemetry: CBOR encoder initialization failed: " + err.Error())
	}
	catalogueDec, err = catalogueDecoder(0)
	if err != nil {
		panic("telemetry: CBOR decoder initialization failed: " + err.Error())
	}
}

// catalogueDecoder returns a decoder accepting at most maxEntries entries,
// or catalogueMaxEntries when maxEntries is 0.
func catalogueDecoder(maxEntries int) (cbor.DecMode, error) {
	limit := catalogueMaxEntries
	if maxEntries > 0 {
		limit = max(maxEntries, 16)
	}
	return cbor.DecOptions{
		MaxNestedLevels:  catalogueMaxNesting,
		MaxArrayElements: limit,
		MaxMapPairs:      catalogueMaxPairs,
	}.DecMode()
}

// Marshal encodes c.
func (c Catalogue) Marshal() ([]byte, error) {
	data, err := catalogueEnc.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding catalogue: %w", err)
	}
	return data, nil
}

// UnmarshalCatalogue decodes a catalogue message.
func UnmarshalCatalogue(data []byte) (Catalogue, error) {
	return decodeCatalogue(catalogueDec, data)
}

func decodeCatalogue(dm cbor.DecMode, data []byte) (Catalogue, error) {
	var c Catalogue
	if err := dm.Unmarshal(data, &c); err != nil {
		return Catalogue{}, fmt.Errorf("decoding catalogue: %w", err)
	}
	return c, nil
}
