// Package casc opens a local CASC storage container (the archive layout
// Blizzard's game clients use) and serves file contents by logical name,
// locale-qualified root lookup, or file-data id.
package casc

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/wowdev/go-casc/internal/blte"
	"github.com/wowdev/go-casc/internal/datablob"
	"github.com/wowdev/go-casc/internal/encoding"
	"github.com/wowdev/go-casc/internal/idx"
	"github.com/wowdev/go-casc/internal/jenkins"
	"github.com/wowdev/go-casc/internal/kvconfig"
	"github.com/wowdev/go-casc/internal/root"
	"github.com/wowdev/go-casc/internal/tokenconfig"
)

var log = logging.Logger("casc")

// blobHeaderSize is the length of the per-entry header written ahead of
// every BLTE payload inside a data blob; stored ranges are read starting
// past it.
const blobHeaderSize = 30

// Handler is an opened CASC storage container. All blob handles are
// preopened during OpenHandler, so the handle table is immutable for the
// lifetime of the Handler and queries take no lock; the mutex and closed
// flag are used only by Close.
type Handler struct {
	root string

	blobs map[int]*datablob.Blob
	idx   *idx.Map
	enc   *encoding.Map
	roots *root.Table

	buildID    string
	localeMask uint32

	mu     sync.Mutex
	closed bool
}

// OpenHandler opens the CASC container rooted at dir. It reads ".build.info",
// selects the active build row, loads that build's key-value config,
// enumerates every ".idx" bucket file, preopens every data blob they
// reference, then locates and parses the encoding and root files.
func OpenHandler(dir string, opts ...Option) (*Handler, error) {
	c := config{localeMask: uint32(defaultLocaleMask)}
	c.apply(opts)

	buildRow, err := readBuildInfo(dir)
	if err != nil {
		return nil, err
	}

	buildCfg, err := readBuildConfig(dir, buildRow)
	if err != nil {
		return nil, err
	}

	idxMap, err := idx.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("casc: load index files: %w", err)
	}

	blobs, err := openBlobs(dir, idxMap)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		root:       dir,
		blobs:      blobs,
		idx:        idxMap,
		localeMask: c.localeMask,
	}
	if id, ok := buildRow.BuildID(); ok {
		h.buildID = id
	}

	if err := h.loadEncoding(buildCfg); err != nil {
		h.Close()
		return nil, err
	}
	if err := h.loadRoot(buildCfg); err != nil {
		h.Close()
		return nil, err
	}

	log.Infow("opened casc container", "root", dir, "build", h.buildID,
		"indexedKeys", idxMap.Len(), "blobs", len(blobs))
	return h, nil
}

func readBuildInfo(dir string) (tokenconfig.Row, error) {
	f, err := os.Open(filepath.Join(dir, ".build.info"))
	if err != nil {
		return nil, fmt.Errorf("casc: open .build.info: %w", err)
	}
	defer f.Close()

	table, err := tokenconfig.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("casc: parse .build.info: %w", err)
	}
	row, ok := table.ActiveRow()
	if !ok {
		return nil, ErrNoActiveBuild
	}
	return row, nil
}

func readBuildConfig(dir string, row tokenconfig.Row) (kvconfig.Config, error) {
	rel, ok := row.ConfigPath("Build Key")
	if !ok {
		return nil, fmt.Errorf("casc: .build.info row has no usable Build Key")
	}
	path := filepath.Join(dir, "data", "config", rel)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("casc: open build config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := kvconfig.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("casc: parse build config %s: %w", path, err)
	}
	return cfg, nil
}

func openBlobs(dir string, idxMap *idx.Map) (map[int]*datablob.Blob, error) {
	blobs := make(map[int]*datablob.Blob)
	for _, i := range idxMap.BlobIndices() {
		b, err := datablob.Open(dir, i)
		if err != nil {
			for _, open := range blobs {
				open.Close()
			}
			return nil, fmt.Errorf("casc: preopen blobs: %w", err)
		}
		blobs[i] = b
	}
	return blobs, nil
}

func (h *Handler) loadEncoding(buildCfg kvconfig.Config) error {
	values := buildCfg.Values("encoding")
	if len(values) != 2 {
		return fmt.Errorf("casc: build config \"encoding\" key has %d values, want 2", len(values))
	}
	encodingKey, err := parseHexKey(values[1])
	if err != nil {
		return fmt.Errorf("casc: build config encoding key: %w", err)
	}

	raw, err := h.readByContentKey(encodingKey)
	if err != nil {
		return fmt.Errorf("casc: locate encoding file: %w", err)
	}
	decoded, err := blte.Decode(raw)
	if err != nil {
		return fmt.Errorf("casc: decode encoding file: %w", err)
	}
	enc, err := encoding.Parse(decoded)
	if err != nil {
		return fmt.Errorf("casc: parse encoding file: %w", err)
	}
	h.enc = enc
	return nil
}

func (h *Handler) loadRoot(buildCfg kvconfig.Config) error {
	values := buildCfg.Values("root")
	if len(values) == 0 {
		return fmt.Errorf("casc: build config has no \"root\" key")
	}
	rootHash, err := parseHexHash(values[0])
	if err != nil {
		return fmt.Errorf("casc: build config root hash: %w", err)
	}

	entry, ok := h.enc.Lookup(rootHash)
	if !ok {
		return fmt.Errorf("casc: no encoding entry for root content hash")
	}
	raw, err := h.readByContentKey(entry.Key)
	if err != nil {
		return fmt.Errorf("casc: locate root file: %w", err)
	}
	decoded, err := blte.Decode(raw)
	if err != nil {
		return fmt.Errorf("casc: decode root file: %w", err)
	}
	tab, err := root.Parse(decoded, h.localeMask)
	if err != nil {
		return fmt.Errorf("casc: parse root file: %w", err)
	}
	h.roots = tab
	return nil
}

// readByContentKey resolves a 16-byte content key through the index map to
// a blob range and reads it, skipping the blob-entry header.
func (h *Handler) readByContentKey(key [16]byte) ([]byte, error) {
	entry, ok := h.idx.Lookup(idx.Truncate(key))
	if !ok {
		return nil, ErrNotFound
	}
	if entry.Size < blobHeaderSize {
		return nil, fmt.Errorf("casc: index entry size %d smaller than blob header", entry.Size)
	}
	blob, ok := h.blobs[entry.BlobIndex]
	if !ok {
		return nil, fmt.Errorf("casc: no open blob for index %d", entry.BlobIndex)
	}
	return blob.Read(uint64(entry.Offset)+blobHeaderSize, uint64(entry.Size)-blobHeaderSize)
}

// Exists reports whether name resolves to a complete root -> encoding ->
// index chain, without reading or decoding its content.
func (h *Handler) Exists(name string) bool {
	return h.anyIndexed(h.roots.ByName(jenkins.Hash64(name)))
}

// IDExists reports whether a file-data id resolves to a complete chain.
func (h *Handler) IDExists(id uint32) bool {
	return h.anyIndexed(h.roots.ByID(id))
}

func (h *Handler) anyIndexed(candidates []encoding.Hash) bool {
	for _, ch := range candidates {
		entry, ok := h.enc.Lookup(ch)
		if !ok {
			continue
		}
		if _, ok := h.idx.Lookup(idx.Truncate(entry.Key)); ok {
			return true
		}
	}
	return false
}

// Open returns the decoded bytes of the first root candidate for name whose
// encoding and index entries both resolve.
func (h *Handler) Open(name string) ([]byte, error) {
	return h.openCandidates(h.roots.ByName(jenkins.Hash64(name)))
}

// OpenByID is Open addressed by file-data id instead of name.
func (h *Handler) OpenByID(id uint32) ([]byte, error) {
	return h.openCandidates(h.roots.ByID(id))
}

func (h *Handler) openCandidates(candidates []encoding.Hash) ([]byte, error) {
	for _, ch := range candidates {
		entry, ok := h.enc.Lookup(ch)
		if !ok {
			continue
		}
		raw, err := h.readByContentKey(entry.Key)
		if err != nil {
			continue
		}
		decoded, err := blte.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("casc: decode blte payload: %w", err)
		}
		return decoded, nil
	}
	return nil, ErrNotFound
}

// BuildID returns the fourth component of the active build's Version
// string, if present.
func (h *Handler) BuildID() string { return h.buildID }

// IDs returns every file-data id known to the root table. Path names are
// one-way hashed on disk, so ids are the only key space a Handler can
// enumerate without an external listfile.
func (h *Handler) IDs() []uint32 { return h.roots.IDs() }

// IndexedKeyCount returns the number of content keys the on-disk .idx
// files resolved.
func (h *Handler) IndexedKeyCount() int { return h.idx.Len() }

// BlobCount returns the number of data blobs preopened at init.
func (h *Handler) BlobCount() int { return len(h.blobs) }

// Close releases every preopened blob handle. Calls after the first do
// nothing and return nil.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	var firstErr error
	for _, b := range h.blobs {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func parseHexKey(s string) ([16]byte, error) {
	var out [16]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 16 {
		return out, fmt.Errorf("want 16 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func parseHexHash(s string) (encoding.Hash, error) {
	b, err := parseHexKey(s)
	return encoding.Hash(b), err
}
