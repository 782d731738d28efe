// Command atlas-build wires Provider, Repository and Publisher together
// end to end against a small in-memory Wisconsin fixture, the way the
// teacher's beacon-chain/main.go wires node services together. It is a
// worked example, not part of the tested core: a production deployment
// supplies its own Provider set (ArcGIS/WFS/REST-JSON/Census adapters)
// and its own Publisher (an IPFS/S3 pin), not the fixtures below.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/engine"
	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/provider"
	"github.com/shadowatlas/atlas/shared/logutil"
	"github.com/shadowatlas/atlas/snapshot"
)

var log = logutil.ForComponent("atlas-build")

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory the bbolt Repository and published documents are written under",
		Value: "./atlas-data",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "also write logs to this file",
	}
)

func main() {
	app := &cli.App{
		Name:  "atlas-build",
		Usage: "run one commitment engine build against the reference Wisconsin fixture",
		Flags: []cli.Flag{dataDirFlag, logFileFlag},
		Before: func(c *cli.Context) error {
			if f := c.String(logFileFlag.Name); f != "" {
				if err := logutil.ConfigurePersistentLogging(f); err != nil {
					log.WithError(err).Error("failed to configure persistent logging")
				}
			}
			return nil
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	dataDir := c.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	repo, err := snapshot.NewBoltStore(filepath.Join(dataDir, "atlas.db"))
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	defer repo.Close()

	publisher, err := newFilePublisher(filepath.Join(dataDir, "published"))
	if err != nil {
		return fmt.Errorf("preparing publisher output directory: %w", err)
	}

	eng := engine.New(repo, publisher, map[string]cell.CountrySlotTable{"US": cell.USSlotTable})

	jobID := uuid.NewString()
	log.WithField("job_id", jobID).Info("starting build")

	result, err := eng.Build(c.Context, jobID, []engine.Source{wisconsinFixtureSource()})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	log.WithFields(logrus.Fields{
		"snapshot_id":  result.Snapshot.SnapshotID,
		"global_root":  result.Root.GlobalRoot.Hex(),
		"cell_count":   result.Snapshot.CellCount,
		"region_count": len(result.Root.Continents["NORTH_AMERICA"].Countries["US"].Regions),
	}).Info("build succeeded")

	proof, err := result.GenerateMembershipProof("US", "", wisconsinTractID)
	if err != nil {
		return fmt.Errorf("generating sample membership proof: %w", err)
	}
	log.WithField("depth", len(proof.CellProof.CellTreeSiblings.Siblings)).Info("generated sample membership proof for fixture tract")

	return nil
}

// filePublisher is the file-backed reference Publisher: it writes each
// document as indented JSON under dir and names it by the sha256 of its
// own bytes, the simplest stand-in for a content-addressed store.
type filePublisher struct {
	dir string
}

func newFilePublisher(dir string) (*filePublisher, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &filePublisher{dir: dir}, nil
}

func (p *filePublisher) PublishGlobalIndex(ctx context.Context, doc snapshot.GlobalIndexDocument) (string, error) {
	return p.write("global-index", doc)
}

func (p *filePublisher) PublishCountryDocument(ctx context.Context, countryCode string, doc snapshot.CountryDocument) (string, error) {
	return p.write("country-"+countryCode, doc)
}

func (p *filePublisher) write(label string, doc interface{}) (string, error) {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	cid := "bafy-" + hex.EncodeToString(sum[:])
	if err := os.WriteFile(filepath.Join(p.dir, label+"-"+cid+".json"), body, 0600); err != nil {
		return "", err
	}
	return cid, nil
}

const wisconsinTractID = "14000US55025000100"

// wisconsinFixtureSource is the single reference Source this binary
// builds from: one static-file origin exposing a census-tract partition
// layer plus a congressional district layer, matching the fixture the
// engine package's own tests build against.
func wisconsinFixtureSource() engine.Source {
	tract := normalize.Feature{
		GeometryKind: normalize.KindPolygon,
		Polygons:     []geo.Polygon{square(0, 0, 1)},
		Properties:   map[string]string{"id": wisconsinTractID},
	}
	congressional := normalize.Feature{
		GeometryKind: normalize.KindPolygon,
		Polygons:     []geo.Polygon{square(-1, -1, 4)},
		Properties:   map[string]string{"id": "5503"},
	}

	adapter := provider.NewStaticFileAdapter("wi-static-fixture",
		[]provider.LayerConfig{
			{LayerType: boundarytype.CensusTract, AuthorityLevel: 1, Endpoint: "fixture://census-tract"},
			{LayerType: boundarytype.Congressional, ExpectedCount: 1, AuthorityLevel: 3, Endpoint: "fixture://congressional"},
		},
		map[boundarytype.LayerType]normalize.FeatureCollection{
			boundarytype.CensusTract:   {Features: []normalize.Feature{tract}},
			boundarytype.Congressional: {Features: []normalize.Feature{congressional}},
		},
	)

	return engine.Source{
		Origin:         "wi-static-fixture",
		Provider:       adapter,
		PartitionLayer: boundarytype.CensusTract,
		Specs: map[boundarytype.LayerType]normalize.LayerSpec{
			boundarytype.CensusTract: {
				LayerType: boundarytype.CensusTract, IDAttributes: []string{"id"},
				CountryCode: "US", AllowUnknownRegion: true, AuthorityLevel: 1,
			},
			boundarytype.Congressional: {
				LayerType: boundarytype.Congressional, IDAttributes: []string{"id"},
				CountryCode: "US", AllowUnknownRegion: true, AuthorityLevel: 3,
			},
		},
	}
}

func square(originLon, originLat, size float64) geo.Polygon {
	return geo.Polygon{Exterior: geo.Ring{
		{Lon: originLon, Lat: originLat},
		{Lon: originLon + size, Lat: originLat},
		{Lon: originLon + size, Lat: originLat + size},
		{Lon: originLon, Lat: originLat + size},
		{Lon: originLon, Lat: originLat},
	}}
}
