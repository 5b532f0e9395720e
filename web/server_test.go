package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.viam.com/test"

	"go.viam.com/scenemotion/interpolator"
	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/scene"
	"go.viam.com/scenemotion/vizclock"
)

const tick = 20 * time.Millisecond

func newTestServer(t *testing.T) (*Server, *httptest.Server, *clock.Mock) {
	t.Helper()
	return newTestServerWithLogger(t, logging.NewTestLogger(t))
}

func newTestServerWithLogger(t *testing.T, logger logging.Logger) (*Server, *httptest.Server, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	control := scene.NewControl(vizclock.NewWithClock(mock), logger)
	_, err := control.AddModule("main")
	test.That(t, err, test.ShouldBeNil)

	srv := NewServer(control, logger, Options{TickInterval: tick, PingInterval: time.Hour})
	srv.Start(context.Background())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts, mock
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	return dialPath(t, ts, "/ws")
}

func dialPath(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		resp.Body.Close()
		conn.Close()
	})
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	var msg Message
	test.That(t, conn.ReadJSON(&msg), test.ShouldBeNil)
	return msg
}

func TestCommandsAndFrames(t *testing.T) {
	srv, ts, mock := newTestServer(t)
	conn := dial(t, ts)

	hello := readMessage(t, conn)
	test.That(t, hello.Type, test.ShouldEqual, MessageHello)
	test.That(t, hello.Client, test.ShouldNotBeEmpty)
	test.That(t, srv.Clients(), test.ShouldEqual, 1)

	test.That(t, conn.WriteJSON(scene.WireCommand{Type: scene.TypeCreate, Name: "agv", Movable: true}), test.ShouldBeNil)
	ack := readMessage(t, conn)
	test.That(t, ack.Type, test.ShouldEqual, MessageAck)
	test.That(t, ack.Command, test.ShouldEqual, scene.TypeCreate)
	test.That(t, ack.Node, test.ShouldEqual, "agv")
	test.That(t, ack.Client, test.ShouldEqual, hello.Client)

	mock.Add(tick)
	frames := readMessage(t, conn)
	test.That(t, frames.Type, test.ShouldEqual, MessageFrames)
	test.That(t, len(frames.Frames), test.ShouldEqual, 1)
	test.That(t, frames.Frames[0].Scene, test.ShouldEqual, "main")
	test.That(t, frames.Frames[0].Nodes[0].Name, test.ShouldEqual, "agv")
	test.That(t, frames.Frames[0].Nodes[0].World.Translation, test.ShouldResemble, scene.Vector{Y: -100})

	profile := interpolator.MotionProfile{Durations: [3]float64{0, 1, 0}, Speeds: [3]float64{10, 10, 10}}
	test.That(t, conn.WriteJSON(scene.WireCommand{
		Type:      scene.TypeMove,
		Name:      "agv",
		Waypoints: []scene.Vector{{}, {X: 10}},
		Profile:   &profile,
	}), test.ShouldBeNil)
	test.That(t, readMessage(t, conn).Type, test.ShouldEqual, MessageAck)

	mock.Add(tick)
	moving := readMessage(t, conn)
	test.That(t, moving.Type, test.ShouldEqual, MessageFrames)
	test.That(t, moving.Frames[0].Nodes[0].Moving, test.ShouldBeTrue)
	test.That(t, moving.Frames[0].Nodes[0].World.Translation.X, test.ShouldAlmostEqual, 0.2)

	test.That(t, conn.WriteJSON(scene.WireCommand{Type: scene.TypeAttach, Name: "agv", Host: "ghost"}), test.ShouldBeNil)
	failed := readMessage(t, conn)
	test.That(t, failed.Type, test.ShouldEqual, MessageError)
	test.That(t, failed.Error, test.ShouldContainSubstring, `"ghost"`)

	test.That(t, conn.WriteJSON(scene.WireCommand{Type: "teleport", Name: "agv"}), test.ShouldBeNil)
	test.That(t, readMessage(t, conn).Type, test.ShouldEqual, MessageError)
}

func TestBroadcastToEveryClient(t *testing.T) {
	_, ts, mock := newTestServer(t)
	first := dial(t, ts)
	second := dial(t, ts)
	test.That(t, readMessage(t, first).Type, test.ShouldEqual, MessageHello)
	test.That(t, readMessage(t, second).Type, test.ShouldEqual, MessageHello)

	test.That(t, first.WriteJSON(scene.WireCommand{Type: scene.TypeCreate, Name: "crate"}), test.ShouldBeNil)
	test.That(t, readMessage(t, first).Type, test.ShouldEqual, MessageAck)
	mock.Add(tick)
	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		test.That(t, msg.Type, test.ShouldEqual, MessageFrames)
		test.That(t, msg.Frames[0].Nodes[0].Name, test.ShouldEqual, "crate")
	}
}

func TestDebugModeClient(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	logger.SetLevel(logging.INFO)
	_, ts, _ := newTestServerWithLogger(t, logger)
	quiet := dial(t, ts)
	traced := dialPath(t, ts, "/ws?debug=forklift-trace")
	test.That(t, readMessage(t, quiet).Type, test.ShouldEqual, MessageHello)
	test.That(t, readMessage(t, traced).Type, test.ShouldEqual, MessageHello)

	test.That(t, quiet.WriteJSON(scene.WireCommand{Type: scene.TypeCreate, Name: "pallet"}), test.ShouldBeNil)
	test.That(t, readMessage(t, quiet).Type, test.ShouldEqual, MessageAck)
	test.That(t, traced.WriteJSON(scene.WireCommand{Type: scene.TypeCreate, Name: "forklift"}), test.ShouldBeNil)
	test.That(t, readMessage(t, traced).Type, test.ShouldEqual, MessageAck)

	received := logs.FilterMessage("command received").All()
	test.That(t, len(received), test.ShouldEqual, 1)
	test.That(t, received[0].ContextMap()["debug_key"], test.ShouldEqual, "forklift-trace")
	test.That(t, received[0].ContextMap()["node"], test.ShouldEqual, "forklift")
}

func TestFramesEndpoint(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	test.That(t, srv.control.Apply(scene.CreateNodeCommand{Name: "gate"}), test.ShouldBeNil)

	resp, err := http.Get(ts.URL + "/frames")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	var frames []scene.Frame
	test.That(t, json.NewDecoder(resp.Body).Decode(&frames), test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 1)
	test.That(t, frames[0].Nodes[0].Name, test.ShouldEqual, "gate")
}

func TestCloseDisconnectsClients(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	conn := dial(t, ts)
	test.That(t, readMessage(t, conn).Type, test.ShouldEqual, MessageHello)

	srv.Close()
	test.That(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)), test.ShouldBeNil)
	_, _, err := conn.ReadMessage()
	test.That(t, websocket.IsCloseError(err, websocket.CloseGoingAway), test.ShouldBeTrue)
	test.That(t, srv.Clients(), test.ShouldEqual, 0)

	resp, err := http.Get(ts.URL + "/ws")
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusServiceUnavailable)
}

func TestServeUntilCancelled(t *testing.T) {
	logger := logging.NewTestLogger(t)
	control := scene.NewControl(vizclock.NewWithClock(clock.NewMock()), logger)
	srv := NewServer(control, logger, Options{})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ctx, listener)
	}()

	url := "ws://" + listener.Addr().String() + "/ws"
	var conn *websocket.Conn
	for i := 0; i < 50; i++ {
		var resp *http.Response
		conn, resp, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()
	test.That(t, readMessage(t, conn).Type, test.ShouldEqual, MessageHello)

	cancel()
	select {
	case err := <-served:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
