package ftpserver

import (
	ftp "github.com/fclairamb/ftpserverlib"
)

// Server is a thin wrapper around ftpserverlib.FtpServer so callers in
// cmd/ftpserver depend only on this package, matching the teacher's
// cmd/server.go pattern of a small owned type around the third-party
// listener.
type Server struct {
	inner *ftp.FtpServer
}

func NewServer(driver *Driver) *Server {
	return &Server{inner: ftp.NewFtpServer(driver)}
}

// ListenAndServe blocks until Stop is called or a fatal listener error
// occurs.
func (s *Server) ListenAndServe() error {
	return s.inner.ListenAndServe()
}

// Stop gracefully shuts the listener down; in-flight transfers are left
// to ftpserverlib's own drain behavior.
func (s *Server) Stop() error {
	return s.inner.Stop()
}
