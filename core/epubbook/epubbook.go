// Package epubbook opens EPUB archives and exposes the handle the outline
// parser and content loader need: book metadata, the navigation sources
// (EPUB3 nav document and EPUB2 NCX), and resource reads by href.
//
// The OPF package is read through goreader's container parsing; the nav
// item's properties attribute is not surfaced by goreader's manifest
// structs, so the OPF is additionally decoded with a minimal local schema.
package epubbook

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"

	"bookslicer/core"
)

const ncxMediaType = "application/x-dtbncx+xml"

// Container is an opened EPUB implementing core.EPUBContainer.
type Container struct {
	rc *epub.ReadCloser
	zr *zip.ReadCloser

	opfDir  string
	navPath string
	ncxPath string
	files   map[string]*zip.File
}

// opfPackage is the subset of the OPF package document needed to locate
// the EPUB3 nav item and the EPUB2 NCX.
type opfPackage struct {
	Manifest struct {
		Items []struct {
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
}

// Open opens the EPUB at path. The caller must Close the container.
func Open(name string) (*Container, error) {
	rc, err := epub.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedContainer, err)
	}
	if len(rc.Rootfiles) == 0 {
		rc.Close()
		return nil, fmt.Errorf("%w: no rootfiles in container.xml", core.ErrMalformedContainer)
	}

	zr, err := zip.OpenReader(name)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("opening epub archive: %w", err)
	}

	c := &Container{
		rc:     rc,
		zr:     zr,
		opfDir: path.Dir(rc.Rootfiles[0].FullPath),
		files:  make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		c.files[f.Name] = f
	}

	if err := c.locateNavSources(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// locateNavSources decodes the OPF manifest to find the nav document and
// the NCX. Missing entries are tolerated here; the outline parser decides
// whether the document has usable navigation at all.
func (c *Container) locateNavSources() error {
	opfData, err := c.readArchivePath(c.rc.Rootfiles[0].FullPath)
	if err != nil {
		return fmt.Errorf("%w: reading content.opf: %v", core.ErrMalformedContainer, err)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return fmt.Errorf("%w: parsing content.opf: %v", core.ErrMalformedContainer, err)
	}

	for _, item := range pkg.Manifest.Items {
		switch {
		case hasProperty(item.Properties, "nav") && c.navPath == "":
			c.navPath = c.resolveHref(item.Href)
		case item.MediaType == ncxMediaType && c.ncxPath == "":
			c.ncxPath = c.resolveHref(item.Href)
		}
	}

	// Some EPUB2 files omit the NCX media type; fall back to extension.
	if c.ncxPath == "" {
		for name := range c.files {
			if strings.HasSuffix(strings.ToLower(name), ".ncx") {
				c.ncxPath = name
				break
			}
		}
	}
	return nil
}

// Close releases the underlying archive handles.
func (c *Container) Close() error {
	c.rc.Close()
	return c.zr.Close()
}

// Title returns the book title from the OPF metadata.
func (c *Container) Title() string {
	return strings.TrimSpace(c.rc.Rootfiles[0].Title)
}

// NavDoc returns the EPUB3 navigation document, if the manifest declares
// an item with properties="nav".
func (c *Container) NavDoc() ([]byte, string, bool) {
	if c.navPath == "" {
		return nil, "", false
	}
	data, err := c.readArchivePath(c.navPath)
	if err != nil {
		return nil, "", false
	}
	return data, c.navPath, true
}

// NCX returns the EPUB2 navigation control file, if present.
func (c *Container) NCX() ([]byte, bool) {
	if c.ncxPath == "" {
		return nil, false
	}
	data, err := c.readArchivePath(c.ncxPath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// ReadResource reads a content resource by OPF-relative href.
// The fragment part, if any, must already be stripped by the caller.
func (c *Container) ReadResource(href string) ([]byte, error) {
	return c.readArchivePath(c.resolveHref(href))
}

// resolveHref maps an OPF-relative href to an archive path.
func (c *Container) resolveHref(href string) string {
	if c.opfDir == "." || c.opfDir == "" {
		return href
	}
	return path.Join(c.opfDir, href)
}

// readArchivePath reads a file from the archive, tolerating the loose
// path styles seen in real EPUBs (exact, suffix, or base-name match).
func (c *Container) readArchivePath(name string) ([]byte, error) {
	f, ok := c.files[name]
	if !ok {
		for candidate, zf := range c.files {
			if strings.HasSuffix(candidate, "/"+name) || path.Base(candidate) == path.Base(name) {
				f = zf
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("resource %s not found in archive", name)
	}

	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening resource %s: %w", name, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// hasProperty checks a space-separated OPF properties attribute.
func hasProperty(props, want string) bool {
	for _, p := range strings.Fields(props) {
		if p == want {
			return true
		}
	}
	return false
}
