// Command hopd runs a hop engine behind a TCP listener, speaking the
// binary request/response protocol described in the root package.
package main

import (
	"log"
	"net"
	"os"
	"strconv"

	"github.com/hopdb/hop"
	"github.com/hopdb/hop/internal"
)

// responseBufs recycles each connection's outgoing response buffer. Every
// use is strictly Get, write into it, conn.Write, Put — the bytes never
// outlive the Put, so sharing the backing array across connections is safe.
var responseBufs = internal.NewBufferPool(256)

func main() {
	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "46733"
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		log.Fatalf("hopd: invalid PORT %q: %v", port, err)
	}

	engine := hop.NewEngine(nil)

	addr := net.JoinHostPort(host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("hopd: listen on %s: %v", addr, err)
	}
	log.Printf("hopd: listening on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("hopd: accept: %v", err)
			continue
		}
		go serve(engine, conn)
	}
}

// serve runs one connection's read loop: decode a request, dispatch it,
// write the response, repeat. Per spec.md §5 this keeps request order
// serialized within the connection; nothing here blocks other connections.
func serve(engine *hop.Engine, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 0, 4096)
	read := make([]byte, 4096)
	dec := hop.NewRequestDecoder()

	for {
		result := dec.Feed(buf)
		switch result.Status {
		case hop.DecodeReady:
			out := responseBufs.Get()
			engine.Dispatch(result.Request, out)
			_, writeErr := conn.Write(out.Bytes())
			responseBufs.Put(out)
			if writeErr != nil {
				return
			}
			buf = buf[result.Consumed:]

		case hop.DecodeErrored:
			// Decoder errors on the request stream are fatal for the
			// connection: the framing is lost.
			out := responseBufs.Get()
			hop.AppendResponse(out, hop.ParseErrorResponse(result.Err.Code))
			conn.Write(out.Bytes())
			responseBufs.Put(out)
			return

		case hop.DecodeNeedMore:
			n, err := conn.Read(read)
			if err != nil {
				return
			}
			buf = append(buf, read[:n]...)
		}
	}
}
