package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"
)

func testAsset() *model.SceneAsset {
	root := model.NewNode("root", 0)
	arm := model.NewNode("arm", 1)
	arm.Transform.Translation = [3]float32{0, 2, 0}
	root.AddChild(arm)

	asset := model.NewSceneAsset(model.WithName("robot"))
	asset.AddScene(&model.Scene{Name: "main", Roots: []*model.Node{root}})
	asset.AddAnimation(&model.Animation3D{Name: "wave", Duration: 1.5, Nodes: []*model.NodeAnimation{{Node: arm}}})
	asset.TrackBones(2)
	return asset
}

func TestServer(t *testing.T) {
	l := loader.NewLoader(loader.BackendTypeGLTF, loader.WithAsset("models/robot.glb", testAsset()))
	srv := httptest.NewServer(newRouter(l))
	defer srv.Close()

	get := func(t *testing.T, path string, want int, v any) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("GET %s = %d, want %d", path, resp.StatusCode, want)
		}
		if v != nil {
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				t.Fatalf("decode %s: %v", path, err)
			}
		}
	}

	t.Run("assets", func(t *testing.T) {
		var names []string
		get(t, "/assets", http.StatusOK, &names)
		if len(names) != 1 || names[0] != "models/robot.glb" {
			t.Errorf("names = %v", names)
		}
	})

	t.Run("asset summary", func(t *testing.T) {
		var s assetSummary
		get(t, "/assets/models/robot.glb", http.StatusOK, &s)
		if s.Name != "robot" || len(s.Scenes) != 1 || s.Scenes[0].Nodes != 2 || s.MaxBones != 2 {
			t.Errorf("summary = %+v", s)
		}
		if len(s.Animations) != 1 || s.Animations[0].Duration != 1.5 {
			t.Errorf("animations = %+v", s.Animations)
		}
	})

	t.Run("scene nodes", func(t *testing.T) {
		var roots []nodeSummary
		get(t, "/assets/models/robot.glb/scenes/0/nodes", http.StatusOK, &roots)
		if len(roots) != 1 || len(roots[0].Children) != 1 {
			t.Fatalf("roots = %+v", roots)
		}
		if arm := roots[0].Children[0]; arm.Name != "arm" || arm.Translation != [3]float32{0, 2, 0} {
			t.Errorf("arm = %+v", arm)
		}
	})

	t.Run("not found", func(t *testing.T) {
		get(t, "/assets/missing.glb", http.StatusNotFound, nil)
		get(t, "/assets/models/robot.glb/scenes/3/nodes", http.StatusNotFound, nil)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/assets", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST /assets = %d", resp.StatusCode)
		}
	})
}
