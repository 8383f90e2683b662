package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Handler routes requests for the status server.
type Handler struct {
	pm *PoolMonitor
}

// Server is the TLS status server for the pool monitor.
type Server struct {
	port    int
	handler *Handler
	server  http.Server
}

// NewServer creates the status server for a monitor.
func NewServer(port int, pm *PoolMonitor) *Server {
	s := Server{
		port: port,
		handler: &Handler{
			pm: pm,
		},
	}
	s.server = http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.handler,
	}
	return &s
}

func startServer(s *Server) {
	err := s.server.ListenAndServeTLS(
		*s.handler.pm.config.sslCertificate,
		*s.handler.pm.config.sslPrivateKey)
	if err != nil {
		Error("Error from Server: %s", err.Error())
	}
}

// Start serves in the background.
func (s *Server) Start() {
	go startServer(s)
	Info("Starting HTTPS on 0.0.0.0:%d", s.port)
}

// Stop closes the server.
func (s *Server) Stop() {
	s.server.Close()
}

const (
	// PumpImage is the pump activity graph
	PumpImage = 0
	// TempImage is the temperature/flow graph
	TempImage = 1
)

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	Debug("Received: %s", r.URL)
	switch r.URL.Path {
	case "/":
		h.rootHandler(w, r)
	case "/pumps":
		h.graphHandler(w, r, PumpImage)
	case "/temps":
		h.graphHandler(w, r, TempImage)
	case "/qr":
		h.qrHandler(w, r)
	case "/config":
		h.configHandler(w, r)
	default:
		http.Error(w, "Unknown request type", 404)
	}
}

func (h *Handler) setRefresh(w http.ResponseWriter, r *http.Request, seconds int) {
	refresh := fmt.Sprintf("%d; url=%s", seconds, r.RequestURI)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Refresh", refresh)
}

func (h *Handler) writeResponse(w http.ResponseWriter, content []byte, ctype string) {
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func getFormValue(r *http.Request, name, defaultValue string) string {
	value := r.FormValue(name)
	if value == "" {
		return defaultValue
	}
	return value
}

func getscale(r *http.Request) string {
	scale := "1d"
	cookie, _ := r.Cookie("scale")
	if cookie != nil {
		scale = cookie.Value
	}
	return getFormValue(r, "scale", scale)
}

func duration(r *http.Request) time.Duration {
	var num int
	var let string
	scale := getscale(r)
	day := time.Hour * 24
	if len(scale) > 1 {
		fmt.Sscanf(scale, "%d%s", &num, &let)
		d := time.Duration(num)
		switch let {
		case "m":
			return d * time.Minute
		case "h":
			return d * time.Hour
		case "d":
			return d * day
		case "w":
			return d * 7 * day
		}
	}
	return day
}

func (h *Handler) graphHandler(w http.ResponseWriter, r *http.Request, which int) {
	var err error
	var graph []byte
	end := time.Now()
	start := end.Add(-1 * duration(r))
	width, _ := strconv.ParseUint(getFormValue(r, "width", "640"), 10, 32)
	height, _ := strconv.ParseUint(getFormValue(r, "height", "300"), 10, 32)
	if which == PumpImage {
		h.pm.pumpRrd.Grapher().SetSize(uint(width), uint(height))
		_, graph, err = h.pm.pumpRrd.Grapher().Graph(start, end)
	} else if which == TempImage {
		h.pm.tempRrd.Grapher().SetSize(uint(width), uint(height))
		_, graph, err = h.pm.tempRrd.Grapher().Graph(start, end)
	} else {
		http.Error(w, "Unknown Graph", 404)
		return
	}
	if err != nil {
		Error("Could not produce graph: %s", err.Error())
	}
	h.setRefresh(w, r, 20) // Refresh image every 20 seconds
	h.writeResponse(w, graph, "image/png")
}

// qrHandler renders the HomeKit setup pin as a QR code for pairing.
func (h *Handler) qrHandler(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(h.pm.config.cfg.Pin, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Could not render QR code", 500)
		return
	}
	h.writeResponse(w, png, "image/png")
}

// configHandler updates the runtime control parameters.  POST requires the
// configured password; changes are pushed into the datastore immediately and
// saved if persistence is enabled.
func (h *Handler) configHandler(w http.ResponseWriter, r *http.Request) {
	config := h.pm.config
	if r.Method == http.MethodPost {
		if !config.Authorized(r.FormValue("password")) {
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}
		setFloat(r, "on_delta", &config.cfg.OnDelta)
		setFloat(r, "off_delta", &config.cfg.OffDelta)
		setFloat(r, "flow_threshold", &config.cfg.FlowThreshold)
		setFloat(r, "cycle_on", &config.cfg.CycleOn)
		setFloat(r, "cycle_pause", &config.cfg.CyclePause)
		if v := r.FormValue("cycle_count"); v != "" {
			if count, err := strconv.ParseUint(v, 10, 32); err == nil {
				config.cfg.CycleCount = uint32(count)
			}
		}
		config.validate()
		config.Apply(h.pm.store)
		check(config.Save(), "could not save configuration")
	}
	h.writeResponse(w, []byte(configPage(config)), "text/html")
}

func setFloat(r *http.Request, name string, target *float64) {
	v := r.FormValue(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if check(err, "bad value for %s: %q", name, v) == nil {
		*target = f
	}
}

func configPage(c *Config) string {
	html := "<html><head><title>Pool Monitor Config</title></head><body>" +
		"<form action=/config method=POST><table>\n"
	row := func(name string, value string) string {
		return fmt.Sprintf("<tr><td>%s</td><td><input name=%s value=%s></td></tr>\n",
			name, name, value)
	}
	html += row("on_delta", fmt.Sprintf("%0.2f", c.cfg.OnDelta))
	html += row("off_delta", fmt.Sprintf("%0.2f", c.cfg.OffDelta))
	html += row("flow_threshold", fmt.Sprintf("%0.2f", c.cfg.FlowThreshold))
	html += row("cycle_count", fmt.Sprintf("%d", c.cfg.CycleCount))
	html += row("cycle_on", fmt.Sprintf("%0.1f", c.cfg.CycleOn))
	html += row("cycle_pause", fmt.Sprintf("%0.1f", c.cfg.CyclePause))
	html += row("password", "")
	html += "</table><input type=submit value=Update></form></body></html>"
	return html
}

func image(which string, width, height int, scale string) string {
	return fmt.Sprintf("<img src=\"/%s?scale=%s&width=%d&height=%d\" width=%d height=%d />",
		which, scale, width, height, width, height)
}

func (h *Handler) rootHandler(w http.ResponseWriter, r *http.Request) {
	scale := getscale(r)
	cookie := &http.Cookie{
		Name:   "scale",
		Value:  scale,
		MaxAge: int(365 * 24 * time.Hour / time.Second),
	}
	http.SetCookie(w, cookie)
	h.setRefresh(w, r, 60)

	html := "<html><head><title>Pool Monitor</title></head><body><center><table>\n"
	html += "<tr><td colspan=2 align=center><form action=/ method=POST>" +
		"Time Window:<input name=scale value=" + scale +
		" size=5> ex. 12h (w, d, h, m)</form></td></tr>\n"
	html += "<tr><td>" + image("temps", 640, 300, scale) + "</td>"
	html += "<td align=left nowrap><font face=helvetica size=-1>"
	html += fmt.Sprintf("%s<br>", h.pm.Status())
	html += "</font></td></tr>\n"
	html += "<tr><td>" + image("pumps", 640, 200, scale) + "</td><td></td></tr>\n"
	html += "</table></center></body></html>"
	h.writeResponse(w, []byte(html), "text/html")
}
