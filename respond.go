package onion

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// respond writes the response the chain left in c.
func respond(c *Context) error {
	if !c.Respond {
		return nil
	}
	if !c.Writable() {
		return nil
	}

	res := c.Response
	t := c.res
	status := res.Status()

	if IsEmptyStatus(status) {
		res.body, res.hasBody = nil, false
		return t.End(nil)
	}

	if c.Method() == http.MethodHead {
		if !t.HeadersSent() && !res.Has("Content-Length") {
			if n := res.Length(); n > 0 {
				res.SetLength(n)
			}
		}
		return t.End(nil)
	}

	if res.body == nil {
		if res.explicitNullBody {
			res.Remove("Content-Type")
			res.Remove("Transfer-Encoding")
			if !t.HeadersSent() {
				res.SetLength(0)
			}
			return t.End(nil)
		}
		text := strconv.Itoa(status)
		if c.req.ProtoMajor < 2 && res.message != "" {
			text = res.message
		} else if c.req.ProtoMajor < 2 {
			if st := StatusText(status); st != "" {
				text = st
			}
		}
		if !t.HeadersSent() {
			res.Set("Content-Type", "text/plain; charset=utf-8")
			res.Set("Content-Length", strconv.Itoa(len(text)))
		}
		return t.End([]byte(text))
	}

	switch body := res.body.(type) {
	case []byte:
		return t.End(body)
	case string:
		return t.End([]byte(body))
	case io.Reader:
		return t.Pipe(body)
	default:
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		if !t.HeadersSent() {
			res.Set("Content-Length", strconv.Itoa(len(b)))
		}
		return t.End(b)
	}
}
