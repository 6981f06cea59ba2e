package node

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

// Node description files, in load order. Only NodeFile is required.
const (
	NodeFile      = "node.ini"
	PiecesFile    = "pieces.ini"
	DevicesFile   = "devices_general.ini"
	SpecificFile  = "devices_specific.ini"
	PortsFile     = "ports.ini"
	TargetsFile   = "target.ini"
	VerticesFile  = "vertices.ini"
	FacesFile     = "faces.ini"
	GlossaryFile  = "glossary.ini"
	TLEFile       = "tle.ini"
	AliasesFile   = "aliases.ini"
	StateFile     = "state.ini"
	defaultPerm   = 0o644
	defaultDirMod = 0o755
)

// ErrNoNodeFile is returned when the node directory has no node.ini.
var ErrNoNodeFile = errors.New("node: node.ini not found")

// Logger defines the logging interface used by the Loader.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// FileStats reports what a single description file contributed.
type FileStats struct {
	File    string
	Matched int
	Skipped int
	Unknown []string
}

// LoadStats summarises a Load.
type LoadStats struct {
	Files       []FileStats
	Aliases     int
	AliasErrors []error
}

// Loader builds a registry from a node description directory.
//
// Loading is two-pass: node.ini is parsed first against the fixed node and
// physics entries, which fixes the table counts. The tables are then sized,
// registered and filled from the remaining files. Device-specific tables are
// sized from the general device table before devices_specific.ini is read.
type Loader struct {
	fsys   fs.FS
	logger Logger
}

// NewLoader creates a loader reading from fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, logger: noopLogger{}}
}

// SetLogger sets the logger for the loader.
func (l *Loader) SetLogger(logger Logger) {
	l.logger = logger
}

// LoadDir is a shorthand for NewLoader(os.DirFS(dir)).Load(reg).
func LoadDir(reg *ns.Registry, dir string) (*Record, LoadStats, error) {
	return NewLoader(os.DirFS(dir)).Load(reg)
}

// Load populates reg from the description files and returns the record now
// backing it, with Record.Recompute installed as the frame hook. reg should
// be empty or freshly Reset.
func (l *Loader) Load(reg *ns.Registry) (*Record, LoadStats, error) {
	var stats LoadStats
	rec := &Record{}

	text, err := l.read(NodeFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, ErrNoNodeFile
		}
		return nil, stats, err
	}

	if err := Register(reg, rec); err != nil {
		return nil, stats, err
	}
	reg.SetRecomputeHook(rec.Recompute)
	if _, err := reg.ParseWithStats(text); err != nil && !errors.Is(err, ns.ErrEndOfStream) {
		return nil, stats, fmt.Errorf("parsing %s: %w", NodeFile, err)
	}

	// Agent and event entries exist only now, so node.ini is read again.
	rec.Allocate()
	if err := Register(reg, rec); err != nil {
		return nil, stats, err
	}
	if err := l.parse(reg, NodeFile, text, &stats); err != nil {
		return nil, stats, err
	}
	for _, name := range []string{PiecesFile, DevicesFile, PortsFile, TargetsFile, VerticesFile, FacesFile, GlossaryFile, TLEFile} {
		if err := l.parseFile(reg, name, &stats); err != nil {
			return nil, stats, err
		}
	}

	rec.AllocateSpecific()
	if err := Register(reg, rec); err != nil {
		return nil, stats, err
	}
	for _, name := range []string{SpecificFile, StateFile} {
		if err := l.parseFile(reg, name, &stats); err != nil {
			return nil, stats, err
		}
	}
	ApplyEnabled(reg, rec)

	aliases, err := l.read(AliasesFile)
	switch {
	case err == nil:
		stats.Aliases, stats.AliasErrors = reg.LoadAliases(aliases)
		for _, e := range stats.AliasErrors {
			l.logger.Warn("alias rejected", "file", AliasesFile, "error", e)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, stats, err
	}

	l.logger.Info("node loaded",
		"node", rec.Node.Name,
		"entries", reg.Count(),
		"devices", len(rec.Devices),
		"pieces", len(rec.Pieces),
		"aliases", stats.Aliases,
	)
	return rec, stats, nil
}

// parseFile parses an optional description file.
func (l *Loader) parseFile(reg *ns.Registry, name string, stats *LoadStats) error {
	text, err := l.read(name)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("description file absent", "file", name)
		return nil
	}
	if err != nil {
		return err
	}
	return l.parse(reg, name, text, stats)
}

func (l *Loader) parse(reg *ns.Registry, name, text string, stats *LoadStats) error {
	st, err := reg.ParseWithStats(text)
	if err != nil && !errors.Is(err, ns.ErrEndOfStream) {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	stats.Files = append(stats.Files, FileStats{File: name, Matched: st.Matched, Skipped: st.Skipped, Unknown: st.Unknown})
	if st.Skipped > 0 {
		l.logger.Warn("fields skipped", "file", name, "skipped", st.Skipped, "unknown", len(st.Unknown))
	}
	l.logger.Debug("description file parsed", "file", name, "matched", st.Matched)
	return nil
}

// read returns a file as UTF-8 text with comments and trailing commas
// removed. A byte-order mark selects UTF-8 or UTF-16; text that is not
// valid UTF-8 without one is taken as Latin-1.
func (l *Loader) read(name string) (string, error) {
	raw, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return "", err
	}
	return string(Clean(raw)), nil
}

// Clean normalises raw description text as read does.
func Clean(raw []byte) []byte {
	dec := unicode.BOMOverride(transform.Nop)
	if !hasBOM(raw) && !utf8.Valid(raw) {
		dec = charmap.ISO8859_1.NewDecoder()
	}
	text, _, err := transform.Bytes(dec, raw)
	if err != nil {
		text = raw
	}
	return jsonc.ToJSON(text)
}

func hasBOM(b []byte) bool {
	return bytes.HasPrefix(b, []byte{0xef, 0xbb, 0xbf}) ||
		bytes.HasPrefix(b, []byte{0xfe, 0xff}) ||
		bytes.HasPrefix(b, []byte{0xff, 0xfe})
}

// fileGroups maps each saved file to the groups it carries.
var fileGroups = []struct {
	file   string
	groups []ns.Group
}{
	{NodeFile, []ns.Group{ns.GroupNode, ns.GroupPhysics, ns.GroupAgent, ns.GroupEvent}},
	{PiecesFile, []ns.Group{ns.GroupPiece}},
	{DevicesFile, []ns.Group{ns.GroupDevice}},
	{SpecificFile, []ns.Group{ns.GroupDeviceSpecific}},
	{PortsFile, []ns.Group{ns.GroupPort}},
	{TargetsFile, []ns.Group{ns.GroupTarget}},
	{VerticesFile, []ns.Group{ns.GroupVertex}},
	{FacesFile, []ns.Group{ns.GroupFace}},
	{GlossaryFile, []ns.Group{ns.GroupGlossary}},
	{TLEFile, []ns.Group{ns.GroupTLE}},
}

// Save writes the registry back out as a description directory, one
// {"name":value} object per line, sorted by name. Aliases and equation
// entries go to aliases.ini. Disabled entries are written too.
func Save(reg *ns.Registry, dir string) error {
	if err := os.MkdirAll(dir, defaultDirMod); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	byGroup := make(map[ns.Group][]string)
	var aliases []ns.Info
	for _, info := range reg.Catalogue() {
		if info.Target != "" {
			aliases = append(aliases, info)
			continue
		}
		h, err := reg.Lookup(info.Name)
		if err != nil {
			return err
		}
		e, err := reg.Entry(h)
		if err != nil {
			return err
		}
		byGroup[e.Group] = append(byGroup[e.Group], info.Name)
	}

	for _, fg := range fileGroups {
		var names []string
		for _, g := range fg.groups {
			names = append(names, byGroup[g]...)
		}
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)

		var buf []byte
		for _, name := range names {
			h, err := reg.Lookup(name)
			if err != nil {
				return err
			}
			if buf, err = reg.AppendEntry(buf, h); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			buf = append(buf, '\n')
		}
		if err := os.WriteFile(filepath.Join(dir, fg.file), buf, defaultPerm); err != nil {
			return fmt.Errorf("writing %s: %w", fg.file, err)
		}
	}

	if len(aliases) == 0 {
		return nil
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i].Name < aliases[j].Name })
	var buf bytes.Buffer
	for _, a := range aliases {
		fmt.Fprintf(&buf, "%s %s\n", a.Name, a.Target)
	}
	if err := os.WriteFile(filepath.Join(dir, AliasesFile), buf.Bytes(), defaultPerm); err != nil {
		return fmt.Errorf("writing %s: %w", AliasesFile, err)
	}
	return nil
}
