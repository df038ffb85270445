package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type assetSummary struct {
	Name       string             `json:"name"`
	Scenes     []sceneSummary     `json:"scenes"`
	Animations []animationSummary `json:"animations"`
	Meshes     int                `json:"meshes"`
	Materials  int                `json:"materials"`
	Textures   int                `json:"textures"`
	MaxBones   int                `json:"max_bones"`
}

type sceneSummary struct {
	Name    string `json:"name"`
	Nodes   int    `json:"nodes"`
	Cameras int    `json:"cameras"`
	Lights  int    `json:"lights"`
}

type animationSummary struct {
	Name     string  `json:"name"`
	Duration float32 `json:"duration"`
	Nodes    int     `json:"nodes"`
}

type nodeSummary struct {
	Name        string        `json:"name"`
	Index       int           `json:"index"`
	Translation [3]float32    `json:"translation"`
	Rotation    [4]float32    `json:"rotation"`
	Scale       [3]float32    `json:"scale"`
	Parts       int           `json:"parts"`
	Skinned     bool          `json:"skinned,omitempty"`
	Camera      bool          `json:"camera,omitempty"`
	Light       bool          `json:"light,omitempty"`
	Children    []nodeSummary `json:"children,omitempty"`
}

func summarize(asset *model.SceneAsset) assetSummary {
	s := assetSummary{
		Name:      asset.Name(),
		Meshes:    len(asset.Meshes()),
		Materials: len(asset.Materials()),
		Textures:  len(asset.Textures()),
		MaxBones:  asset.MaxBones(),
	}
	for _, sc := range asset.Scenes() {
		count := 0
		sc.Walk(func(*model.Node) bool {
			count++
			return true
		})
		s.Scenes = append(s.Scenes, sceneSummary{
			Name:    sc.Name,
			Nodes:   count,
			Cameras: len(sc.Cameras),
			Lights:  len(sc.Lights),
		})
	}
	for _, a := range asset.Animations() {
		s.Animations = append(s.Animations, animationSummary{Name: a.Name, Duration: a.Duration, Nodes: len(a.Nodes)})
	}
	return s
}

func summarizeNode(n *model.Node) nodeSummary {
	s := nodeSummary{
		Name:        n.Name,
		Index:       n.Index,
		Translation: n.Transform.Translation,
		Rotation:    n.Transform.Rotation,
		Scale:       n.Transform.Scale,
		Parts:       len(n.Parts),
		Skinned:     n.Skin != nil,
		Camera:      n.Camera != nil,
		Light:       n.Light != nil,
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, summarizeNode(c))
	}
	return s
}

type inspectServer struct {
	loader loader.Loader
}

// newRouter registers the read-only inspection routes over the assets cached by l.
func newRouter(l loader.Loader) *mux.Router {
	is := &inspectServer{loader: l}

	r := mux.NewRouter()
	r.HandleFunc("/assets", is.handleAssets).Methods(http.MethodGet)
	r.HandleFunc("/assets/{name:.+}/scenes/{scene:[0-9]+}/nodes", is.handleNodes).Methods(http.MethodGet)
	r.HandleFunc("/assets/{name:.+}", is.handleAsset).Methods(http.MethodGet)
	return r
}

func startServer(ctx context.Context, addr string, l loader.Loader) error {
	h := handlers.RecoveryHandler()(newRouter(l))
	h = handlers.LoggingHandler(os.Stdout, h)

	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	common.LogInfo("Starting inspect server", "addr", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (is *inspectServer) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets := is.loader.Assets()
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, names)
}

func (is *inspectServer) handleAsset(w http.ResponseWriter, r *http.Request) {
	asset := is.loader.Get(mux.Vars(r)["name"])
	if asset == nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summarize(asset))
}

func (is *inspectServer) handleNodes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asset := is.loader.Get(vars["name"])
	if asset == nil {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}

	index, err := strconv.Atoi(vars["scene"])
	scenes := asset.Scenes()
	if err != nil || index >= len(scenes) {
		http.Error(w, "scene not found", http.StatusNotFound)
		return
	}

	roots := make([]nodeSummary, 0, len(scenes[index].Roots))
	for _, root := range scenes[index].Roots {
		roots = append(roots, summarizeNode(root))
	}
	writeJSON(w, roots)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.LogError("Failed to encode response", "err", err)
	}
}
