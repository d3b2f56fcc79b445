package route

import (
	"daygrid/src-server/utils"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

func SPA(muxer *http.ServeMux, as *utils.AppState) {
	if as.Config.GetStaticWebClientDir() == "" {
		slog.Warn("STATIC_WEB_CLIENT_DIR is not set, not serving the web client")
		return
	}

	files := http.FS(os.DirFS(as.Config.GetStaticWebClientDir()))
	if indexFile, err := files.Open("index.html"); err != nil {
		slog.Error("can't open index.html, not serving the web client", "error", err)
		return
	} else {
		indexFile.Close()
	}

	// unknown paths fall back to the index so client-side routing works
	serveIndex := func(w http.ResponseWriter, r *http.Request) {
		indexFile, err := files.Open("index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer indexFile.Close()
		stat, err := indexFile.Stat()
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, stat.Name(), stat.ModTime(), indexFile)
	}

	muxer.HandleFunc("GET /{filepath...}", func(w http.ResponseWriter, r *http.Request) {
		filepath := filepath.Clean(r.PathValue("filepath"))
		switch filepath {
		case ".":
			filepath = "index.html"
		case "calendar":
			filepath = "calendar/index.html"
		case "404":
			filepath = "404.html"
		}

		file, err := files.Open(filepath)
		if err != nil {
			serveIndex(w, r)
			return
		}
		defer file.Close()

		stat, err := file.Stat()
		if err != nil {
			serveIndex(w, r)
			return
		}

		http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
	})
}
