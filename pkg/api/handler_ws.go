package api

import (
	echo "github.com/labstack/echo/v5"

	"github.com/coder/websocket"
)

// wsHandler handles GET /ws/drift, upgrading the connection and handing it
// off to the connection manager for subscribe/catchup/fan-out.
func (s *Server) wsHandler(c *echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	s.connManager.HandleConnection(c.Request().Context(), conn)
	return nil
}
