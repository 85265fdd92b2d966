// Command hop-cli is an interactive text front end for a hop server,
// implementing the CLI surface described in spec.md §6: it is external to
// the wire protocol and is not part of the core module's contract.
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hopdb/hop"
	"github.com/hopdb/hop/client"
)

var commandsByName = map[string]hop.CommandID{
	"increment":   hop.CmdIncrement,
	"decrement":   hop.CmdDecrement,
	"incrementby": hop.CmdIncrementBy,
	"decrementby": hop.CmdDecrementBy,
	"set":         hop.CmdSet,
	"delete":      hop.CmdDelete,
	"exists":      hop.CmdExists,
	"is":          hop.CmdIs,
	"rename":      hop.CmdRename,
	"append":      hop.CmdAppend,
	"length":      hop.CmdLength,
	"echo":        hop.CmdEcho,
	"stats":       hop.CmdStats,
}

func parseKeyType(suffix string) (hop.KeyType, bool) {
	switch suffix {
	case "bool", "boolean":
		return hop.KeyTypeBoolean, true
	case "bytes":
		return hop.KeyTypeBytes, true
	case "float":
		return hop.KeyTypeFloat, true
	case "integer", "int":
		return hop.KeyTypeInteger, true
	case "list":
		return hop.KeyTypeList, true
	case "map":
		return hop.KeyTypeMap, true
	case "set":
		return hop.KeyTypeSet, true
	case "string", "str":
		return hop.KeyTypeString, true
	default:
		return 0, false
	}
}

func main() {
	addr := flag.String("addr", "127.0.0.1:46733", "hop server address")
	flag.Parse()

	c, err := client.NewRemoteClient(*addr, 4, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hop-cli: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	fmt.Println("hop CLI — type `help` for the command list, `quit` to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if line == "help" {
			printHelp()
			continue
		}
		runLine(c, line)
	}
}

func printHelp() {
	fmt.Println("name[:key-type] [args...]")
	fmt.Println("commands: increment decrement incrementby decrementby set delete exists is rename append length echo stats")
	fmt.Println("key-types: bool|boolean bytes float integer|int list map set string|str")
}

func runLine(c *client.Client, line string) {
	fields := strings.Fields(line)
	head := fields[0]
	args := fields[1:]

	name := head
	var kind hop.KeyType
	hasKind := false
	if i := strings.IndexByte(head, ':'); i >= 0 {
		name = head[:i]
		k, ok := parseKeyType(head[i+1:])
		if !ok {
			fmt.Printf("unknown key-type %q\n", head[i+1:])
			return
		}
		kind, hasKind = k, true
	}

	cmd, ok := commandsByName[strings.ToLower(name)]
	if !ok {
		fmt.Printf("unknown command %q\n", name)
		return
	}

	byteArgs := make([][]byte, len(args))
	for i, a := range args {
		byteArgs[i] = []byte(a)
	}
	req := hop.NewRequest(cmd, byteArgs...)
	if hasKind {
		req = req.WithKeyType(kind)
	}

	resp, err := c.Raw(context.Background(), req)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printResponse(resp)
}

func printResponse(resp *hop.Response) {
	switch resp.Type {
	case hop.RespDispatchError:
		fmt.Printf("dispatch error: code %d\n", resp.DispatchErr)
	case hop.RespParseError:
		fmt.Printf("parse error: code %d\n", resp.ParseErr)
	case hop.RespBoolean:
		fmt.Println(bool(resp.Value.(hop.BooleanValue)))
	case hop.RespInteger:
		fmt.Println(int64(resp.Value.(hop.IntegerValue)))
	case hop.RespFloat:
		fmt.Println(strconv.FormatFloat(float64(resp.Value.(hop.FloatValue)), 'g', -1, 64))
	case hop.RespString:
		fmt.Println(string(resp.Value.(hop.StringValue)))
	case hop.RespBytes:
		fmt.Printf("%s\n", string(resp.Value.(hop.BytesValue)))
	case hop.RespList:
		for _, item := range resp.Value.(hop.ListValue) {
			fmt.Println(string(item))
		}
	case hop.RespSet:
		for _, item := range sortedSetLines(resp.Value.(hop.SetValue)) {
			fmt.Println(item)
		}
	case hop.RespMap:
		for k, v := range resp.Value.(hop.MapValue) {
			fmt.Printf("%s=%s\n", k, formatMapValue(v))
		}
	}
}

// formatMapValue renders any 8-byte value as a big-endian i64 decimal
// number, the form Stats' counters take; other values print as raw bytes.
// A map built with set:map whose value happens to be 8 bytes long is
// printed as a number too.
func formatMapValue(raw []byte) string {
	if len(raw) == 8 {
		return strconv.FormatInt(int64(binary.BigEndian.Uint64(raw)), 10)
	}
	return string(raw)
}

func sortedSetLines(s hop.SetValue) []string {
	out := make([]string, 0, len(s))
	for member := range s {
		out = append(out, member)
	}
	sort.Strings(out)
	return out
}
