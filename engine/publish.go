package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/global"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/snapshot"
)

// publishResult carries the content addresses publishAll obtained, so
// seal can attach them to the Snapshot it persists. CountryIndex is
// retained on the BuildResult so a later RebuildRegion can assemble a
// fresh GlobalIndexDocument without re-publishing every untouched
// country.
type publishResult struct {
	GlobalCID    string
	CountryCIDs  map[string]string
	CountryIndex map[string]snapshot.CountryIndexEntry
}

// publishAll runs spec.md §5 suspension point 3: one CountryDocument per
// country, then the GlobalIndexDocument referencing each country's
// resulting content address (spec.md §6's outbound document shapes).
func (e *Engine) publishAll(ctx context.Context, root *global.Root, cellsByCountryRegion map[string]map[string][]cell.Cell, now time.Time) (*publishResult, error) {
	const op = "engine.publishAll"

	countryCIDs := make(map[string]string, len(root.Continents))
	countries := make(map[string]snapshot.CountryIndexEntry, len(root.Continents))

	for _, continent := range root.Continents {
		for code, cr := range continent.Countries {
			doc := buildCountryDocument(code, cr, cellsByCountryRegion[code])
			cid, entry, err := e.publishCountryDocument(ctx, code, cr, doc, now)
			if err != nil {
				return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "publish country document for "+code, err)
			}
			countryCIDs[code] = cid
			countries[code] = entry
		}
	}

	globalCID, err := e.publishGlobalIndex(ctx, root.GlobalRoot, countries, now)
	if err != nil {
		return nil, atlaserr.Wrap(atlaserr.KindUpstreamUnavailable, op, "publish global index", err)
	}

	return &publishResult{GlobalCID: globalCID, CountryCIDs: countryCIDs, CountryIndex: countries}, nil
}

// publishCountryDocument publishes one already-built CountryDocument and
// returns its content address plus the GlobalIndexDocument entry it
// contributes — factored out of publishAll so RebuildRegion can
// republish a single country the same way a full build does.
func (e *Engine) publishCountryDocument(ctx context.Context, code string, cr global.CountryResult, doc snapshot.CountryDocument, now time.Time) (string, snapshot.CountryIndexEntry, error) {
	cid, err := e.Publisher.PublishCountryDocument(ctx, code, doc)
	if err != nil {
		return "", snapshot.CountryIndexEntry{}, err
	}
	cellCount := len(doc.Cells)
	entry := snapshot.CountryIndexEntry{
		CID:         cid,
		Root:        cr.Commitment.Hex(),
		Cells:       cellCount,
		Slots:       slotCountOf(doc),
		SizeMB:      estimateSizeMB(cellCount, slotCountOf(doc)),
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
	return cid, entry, nil
}

// publishGlobalIndex publishes the spec.md §6 GlobalIndexDocument
// referencing every country's current entry. Called both from a full
// build (every entry freshly published) and from RebuildRegion (most
// entries carried forward untouched from the prior build).
func (e *Engine) publishGlobalIndex(ctx context.Context, globalRoot poseidon.Field, countries map[string]snapshot.CountryIndexEntry, now time.Time) (string, error) {
	indexDoc := snapshot.GlobalIndexDocument{
		Version:    "3.0.0",
		GlobalRoot: globalRoot.Hex(),
		Timestamp:  now.UTC().Format(time.RFC3339),
		LeafModel:  "cell",
		Countries:  countries,
	}
	return e.Publisher.PublishGlobalIndex(ctx, indexDoc)
}

// buildCountryDocument assembles spec.md §6's CountryDocument. cr.Regions
// and regions are both Go maps, so every map is visited in sorted-key
// order here (region code, then cell ID within a region) — otherwise
// doc.Cells would come out in a different order on every build, and §6
// calls for a canonical document, not one that merely contains the
// right set of cells.
func buildCountryDocument(code string, cr global.CountryResult, regions map[string][]cell.Cell) snapshot.CountryDocument {
	doc := snapshot.CountryDocument{
		Country: code,
		Root:    cr.Commitment.Hex(),
		Regions: make(map[string]snapshot.CountryRegion, len(cr.Regions)),
	}

	regionCodes := make([]string, 0, len(cr.Regions))
	for regionCode := range cr.Regions {
		regionCodes = append(regionCodes, regionCode)
	}
	sort.Strings(regionCodes)

	for _, regionCode := range regionCodes {
		rr := cr.Regions[regionCode]
		cells := append([]cell.Cell(nil), regions[regionCode]...)
		sort.Slice(cells, func(i, j int) bool { return cells[i].ID < cells[j].ID })

		doc.Regions[regionCode] = snapshot.CountryRegion{Root: rr.Commitment.Hex(), Cells: len(cells)}
		for _, c := range cells {
			districtHashes := make([]string, len(c.DistrictSlots))
			for i, s := range c.DistrictSlots {
				districtHashes[i] = s.Hex()
			}
			doc.Cells = append(doc.Cells, snapshot.CountryDocumentCell{
				CellID:         c.ID,
				LeafHash:       c.LeafHash().Hex(),
				DistrictHashes: districtHashes,
				DistrictIDs:    append([]string(nil), c.DistrictIDs...),
			})
		}
	}
	return doc
}

func slotCountOf(doc snapshot.CountryDocument) int {
	if len(doc.Cells) == 0 {
		return 0
	}
	return len(doc.Cells[0].DistrictHashes)
}

// estimateSizeMB approximates a published CountryDocument's size: each
// cell contributes one leaf hash and one hash per slot, each roughly 70
// bytes once hex-encoded and JSON-quoted.
func estimateSizeMB(cellCount, slots int) float64 {
	const bytesPerHashField = 70
	total := float64(cellCount) * float64(1+slots) * bytesPerHashField
	return total / (1024 * 1024)
}
