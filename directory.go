package ftplist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gonzalop/ftplist/internal/ratelimit"
	"github.com/gonzalop/ftplist/listing"
)

// WalkFunc is the type of the function called for each file or directory
// visited by Walk. The path argument contains the argument to Walk as a
// prefix.
//
// If listing a directory fails, walkFn is called again for that directory
// with the error, and Walk does not descend into it. If an error is
// returned, processing stops. The sole exception is SkipDir: returned for a
// directory, Walk skips its contents.
type WalkFunc func(path string, info *listing.Entry, err error) error

// SkipDir is used as a return value from WalkFunc to indicate that
// the directory named in the call is to be skipped. It is not returned
// as an error by any function.
var SkipDir = filepath.SkipDir

// Walk walks the file tree rooted at root, calling walkFn for each file or
// directory in the tree, including root. Entries are visited in the order
// the server lists them. Walk does not follow symbolic links.
func (c *Client) Walk(root string, walkFn WalkFunc) error {
	cleanRoot := path.Clean(root)
	if cleanRoot == "." || cleanRoot == "/" {
		return c.walk(cleanRoot, &listing.Entry{Name: cleanRoot, Type: listing.TypeDir}, walkFn)
	}

	// LIST <root> returns the contents of root, so look root up in its parent.
	parent := path.Dir(cleanRoot)
	if parent == "." {
		parent = ""
	}
	entries, err := c.List(parent)
	if err != nil {
		return walkFn(root, nil, err)
	}

	name := path.Base(cleanRoot)
	for _, e := range entries {
		if e.Name != name {
			continue
		}
		if err := c.walk(cleanRoot, e, walkFn); !errors.Is(err, SkipDir) {
			return err
		}
		return nil
	}
	return walkFn(root, nil, os.ErrNotExist)
}

func (c *Client) walk(dir string, info *listing.Entry, walkFn WalkFunc) error {
	if err := walkFn(dir, info, nil); err != nil {
		if info.IsDir() && errors.Is(err, SkipDir) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return nil
	}

	entries, err := c.List(dir)
	if err != nil {
		return walkFn(dir, info, err)
	}

	for _, entry := range entries {
		if err := c.walk(path.Join(dir, entry.Name), entry, walkFn); err != nil {
			if errors.Is(err, SkipDir) {
				// SkipDir on a file skips the rest of its directory.
				return nil
			}
			return err
		}
	}
	return nil
}

// List returns the entries of the directory at path, or of the current
// directory when path is empty.
//
// When the server advertises MLST in its FEAT reply, List sends MLSD;
// otherwise it sends LIST. If the server rejects MLSD as not implemented,
// the client falls back to LIST and does not try MLSD again. Either way the
// body is handed to the client's listing.Parser, which detects the format
// (DOS, Unix, EPLF or MLSD, plus any WithRecognizer formats).
//
// A listing in an unknown format fails with an error matching
// listing.ErrFormatUnrecognized.
//
// Example:
//
//	entries, err := client.List("/pub")
//	if errors.Is(err, listing.ErrFormatUnrecognized) {
//	    // enable WithLogger to see the raw listing
//	}
//	for _, e := range entries {
//	    fmt.Printf("%s %d\n", e.Name, e.Size)
//	}
func (c *Client) List(path string) ([]*listing.Entry, error) {
	cmd := "LIST"
	if c.useMLSD() {
		cmd = "MLSD"
	}

	raw, err := c.readListing(cmd, path)
	if err != nil && cmd == "MLSD" && isNotImplemented(err) {
		c.logger.Debug("MLSD not implemented, falling back to LIST", "error", err)
		c.disableMLSD = true
		cmd = "LIST"
		raw, err = c.readListing(cmd, path)
	}
	if err != nil {
		return nil, err
	}

	entries, err := c.listParser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cmd, path, err)
	}
	return entries, nil
}

// RawList returns the decoded body of a LIST reply without parsing it.
func (c *Client) RawList(path string) (string, error) {
	return c.readListing("LIST", path)
}

// NameList returns the names in the directory at path using NLST.
func (c *Client) NameList(path string) ([]string, error) {
	raw, err := c.readListing("NLST", path)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(raw, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ListParser returns the parser List uses.
func (c *Client) ListParser() *listing.Parser {
	return c.listParser
}

func (c *Client) useMLSD() bool {
	return !c.disableMLSD && c.HasFeature("MLST")
}

// readListing runs a listing command and returns its body decoded to UTF-8.
func (c *Client) readListing(cmd, path string) (string, error) {
	if err := c.Type("A"); err != nil {
		return "", err
	}

	var args []string
	if path != "" {
		args = append(args, path)
	}

	prelim, dataConn, err := c.cmdDataConn(cmd, args...)
	if err != nil {
		return "", err
	}

	r := ratelimit.NewReader(dataConn, c.limiter)
	if c.maxListingSize > 0 {
		r = io.LimitReader(r, c.maxListingSize+1)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		// Consume the 426/451 reply so the next command reads its own.
		finishErr := c.finishDataConn(cmd, prelim, dataConn)
		c.logger.Debug("listing transfer failed", "cmd", cmd, "error", err, "completion", finishErr)
		return "", fmt.Errorf("failed to read directory listing: %w", err)
	}

	if c.maxListingSize > 0 && int64(len(body)) > c.maxListingSize {
		// The server sees the early close; its reply no longer matters.
		_ = c.finishDataConn(cmd, prelim, dataConn)
		return "", fmt.Errorf("%s %s: %w (limit %d bytes)", cmd, path, ErrListingTooLarge, c.maxListingSize)
	}

	if err := c.finishDataConn(cmd, prelim, dataConn); err != nil {
		return "", err
	}

	text, err := c.decode(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode directory listing: %w", err)
	}

	c.logger.Debug("ftp listing", "cmd", cmd, "path", path, "bytes", len(body), "body", text)
	return text, nil
}

func (c *Client) decode(body []byte) (string, error) {
	if c.encoding == nil {
		return string(body), nil
	}
	decoded, err := c.encoding.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// ChangeDir changes the current working directory.
func (c *Client) ChangeDir(path string) error {
	_, err := c.expect2xx("CWD", path)
	return err
}

// CurrentDir returns the current working directory.
func (c *Client) CurrentDir() (string, error) {
	resp, err := c.expect2xx("PWD")
	if err != nil {
		return "", err
	}

	// 257 "/home/user" is the current directory
	// Quotes inside the name are doubled (RFC 959).
	msg := resp.Message
	start := strings.Index(msg, `"`)
	if start == -1 {
		return "", fmt.Errorf("invalid PWD response: %s", msg)
	}

	var dir strings.Builder
	for i := start + 1; i < len(msg); i++ {
		if msg[i] != '"' {
			dir.WriteByte(msg[i])
			continue
		}
		if i+1 < len(msg) && msg[i+1] == '"' {
			dir.WriteByte('"')
			i++
			continue
		}
		return dir.String(), nil
	}
	return "", fmt.Errorf("invalid PWD response: %s", msg)
}
