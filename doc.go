// Package ftplist lists directories on FTP servers and turns the replies
// into structured entries.
//
// # Overview
//
// FTP servers answer LIST with text in whatever format their operating
// system prefers. The client fetches that text and hands it to a
// listing.Parser, which detects the format from the listing itself:
//   - MLSD fact lines (RFC 3659), used automatically when the server
//     advertises MLST
//   - Unix "ls -l" style lines
//   - DOS/Windows (IIS) style lines
//   - EPLF lines
//
// Custom formats can be added with WithRecognizer.
//
// # Basic Usage
//
//	client, err := ftplist.Connect("ftp://ftp.example.com/pub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
//
//	entries, err := client.List("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range entries {
//	    fmt.Println(e.Name, e.Size, e.ModTime)
//	}
//
// # TLS Support
//
// Explicit TLS upgrades a plain connection with AUTH TLS; implicit TLS
// connects with TLS directly, usually on port 990:
//
//	client, err := ftplist.Dial("ftp.example.com:21",
//	    ftplist.WithExplicitTLS(&tls.Config{ServerName: "ftp.example.com"}),
//	)
//
// Data connections reuse the control connection's TLS session, which
// servers such as vsftpd and ProFTPD require.
//
// # Character Sets
//
// Listings are assumed to be UTF-8. Older servers often send file names in
// a legacy code page; WithEncoding decodes the listing before parsing:
//
//	client, err := ftplist.Dial(addr, ftplist.WithEncoding(charmap.Windows1252))
//
// # Error Handling
//
// Unexpected replies are returned as *ProtocolError. A listing in a format
// no recognizer understands matches listing.ErrFormatUnrecognized:
//
//	entries, err := client.List("/pub")
//	var pe *ftplist.ProtocolError
//	switch {
//	case errors.As(err, &pe):
//	    fmt.Printf("%s failed with %d: %s\n", pe.Command, pe.Code, pe.Response)
//	case errors.Is(err, listing.ErrFormatUnrecognized):
//	    // WithLogger shows the raw listing at debug level
//	}
package ftplist
