package server

import (
	"net/http/httptest"
)

func (s *Server) TestServer() *httptest.Server {
	server := httptest.NewServer(s.Handler)
	s.httpServer = server.Config
	return server
}
