package model

import (
	"sync"
)

// SceneAsset is the result of one import.
// It owns every mesh and texture created during that import, except borrowed textures,
// and releases them as a unit.
type SceneAsset struct {
	mu sync.Mutex

	name         string
	scenes       []*Scene
	defaultScene int
	animations   []*Animation3D
	maxBones     int

	meshes    []*Mesh
	materials []*Material
	textures  []*Texture

	disposed bool
}

// NewSceneAsset creates an empty asset configured with the provided options.
//
// Parameters:
//   - options: variadic list of SceneAssetBuilderOption functions
//
// Returns:
//   - *SceneAsset: the new asset
func NewSceneAsset(options ...SceneAssetBuilderOption) *SceneAsset {
	a := &SceneAsset{}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *SceneAsset) Name() string {
	return a.name
}

// Scenes retrieves all scenes of the asset.
func (a *SceneAsset) Scenes() []*Scene {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scenes
}

// Scene retrieves the default scene, or nil if the asset has no scenes.
func (a *SceneAsset) Scene() *Scene {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.defaultScene < 0 || a.defaultScene >= len(a.scenes) {
		return nil
	}
	return a.scenes[a.defaultScene]
}

// Animations retrieves all animations of the asset.
func (a *SceneAsset) Animations() []*Animation3D {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.animations
}

// Animation looks an animation up by name.
func (a *SceneAsset) Animation(name string) *Animation3D {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, anim := range a.animations {
		if anim.Name == name {
			return anim
		}
	}
	return nil
}

// MaxBones retrieves the largest joint count of any skin in the asset.
func (a *SceneAsset) MaxBones() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxBones
}

// Meshes retrieves every mesh owned by the asset.
func (a *SceneAsset) Meshes() []*Mesh {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meshes
}

// Materials retrieves every material created by the import.
func (a *SceneAsset) Materials() []*Material {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.materials
}

// Textures retrieves every texture referenced by the asset, borrowed ones included.
func (a *SceneAsset) Textures() []*Texture {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.textures
}

// AddScene appends a scene.
func (a *SceneAsset) AddScene(s *Scene) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scenes = append(a.scenes, s)
}

// SetDefaultScene selects the scene returned by Scene.
func (a *SceneAsset) SetDefaultScene(index int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaultScene = index
}

// AddAnimation appends an animation.
func (a *SceneAsset) AddAnimation(anim *Animation3D) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.animations = append(a.animations, anim)
}

// TrackBones raises MaxBones to count if it is larger.
func (a *SceneAsset) TrackBones(count int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maxBones = max(a.maxBones, count)
}

// TrackMesh hands ownership of m to the asset.
// Meshes must be tracked before they are uploaded so that partially uploaded buffers are released on failure.
func (a *SceneAsset) TrackMesh(m *Mesh) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.meshes = append(a.meshes, m)
}

// TrackMaterial records a material created by the import.
func (a *SceneAsset) TrackMaterial(m *Material) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.materials = append(a.materials, m)
}

// TrackTexture hands ownership of t to the asset unless t is borrowed.
func (a *SceneAsset) TrackTexture(t *Texture) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.textures = append(a.textures, t)
}

// Disposed reports whether Dispose has run.
func (a *SceneAsset) Disposed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposed
}

// Dispose releases all owned GPU resources, then clears every container.
// Calling Dispose more than once has no further effect.
func (a *SceneAsset) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.disposed {
		return
	}
	a.disposed = true

	for _, m := range a.meshes {
		m.release()
	}
	for _, t := range a.textures {
		t.release()
	}

	a.meshes = nil
	a.materials = nil
	a.textures = nil
	a.scenes = nil
	a.animations = nil
	a.maxBones = 0
}
