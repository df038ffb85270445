package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/qmuntal/gltf"
)

// lightIntensityDivisor scales KHR_lights_punctual point and spot intensities, given in
// candela, down to the engine's light units. Directional lights are not scaled.
const lightIntensityDivisor = 10

// pendingSkin is a skin reference resolved once every scene node exists.
type pendingSkin struct {
	node  *model.Node
	index int
}

// sceneCollector gathers the unique meshes, parts and materials reachable from one scene.
type sceneCollector struct {
	meshes    map[*model.Mesh]struct{}
	parts     map[*model.MeshPart]struct{}
	materials map[*model.Material]struct{}
	scene     *model.Scene
}

func newSceneCollector(scene *model.Scene) *sceneCollector {
	return &sceneCollector{
		meshes:    make(map[*model.Mesh]struct{}),
		parts:     make(map[*model.MeshPart]struct{}),
		materials: make(map[*model.Material]struct{}),
		scene:     scene,
	}
}

func (c *sceneCollector) visit(n *model.Node) bool {
	if n.Camera != nil {
		c.scene.Cameras[n] = n.Camera
	}
	if n.Light != nil {
		c.scene.Lights[n] = n.Light
	}
	for _, p := range n.Parts {
		if _, ok := c.parts[p.MeshPart]; !ok {
			c.parts[p.MeshPart] = struct{}{}
			c.scene.MeshParts = append(c.scene.MeshParts, p.MeshPart)
		}
		if _, ok := c.meshes[p.MeshPart.Mesh]; !ok {
			c.meshes[p.MeshPart.Mesh] = struct{}{}
			c.scene.Meshes = append(c.scene.Meshes, p.MeshPart.Mesh)
		}
		if _, ok := c.materials[p.Material]; !ok {
			c.materials[p.Material] = struct{}{}
			c.scene.Materials = append(c.scene.Materials, p.Material)
		}
	}
	return true
}

// buildScenes builds every scene of the document into the asset.
// A document without scenes gets one scene holding all parentless nodes.
//
// Returns:
//   - error: FormatError for invalid or cyclic node references
func (ic *importContext) buildScenes() error {
	lights, err := ic.documentLights()
	if err != nil {
		return err
	}
	ic.lights = lights

	sceneRoots := make([][]int, 0, len(ic.doc.Scenes))
	names := make([]string, 0, len(ic.doc.Scenes))
	for i, gs := range ic.doc.Scenes {
		roots := make([]int, len(gs.Nodes))
		for r, n := range gs.Nodes {
			roots[r] = int(n)
		}
		sceneRoots = append(sceneRoots, roots)
		names = append(names, common.Coalesce(gs.Name, fmt.Sprintf("scene_%d", i)))
	}
	if len(sceneRoots) == 0 && len(ic.doc.Nodes) > 0 {
		sceneRoots = append(sceneRoots, parentlessNodes(ic.doc))
		names = append(names, "scene_0")
	}

	scenes := make([]*model.Scene, 0, len(sceneRoots))
	for i, roots := range sceneRoots {
		scene := &model.Scene{
			Name:    names[i],
			Cameras: make(map[*model.Node]*model.Camera),
			Lights:  make(map[*model.Node]*model.Light),
		}
		for _, r := range roots {
			if err := ic.ctx.Err(); err != nil {
				return err
			}
			root, err := ic.buildNode(r)
			if err != nil {
				return err
			}
			scene.Roots = append(scene.Roots, root)
		}
		scenes = append(scenes, scene)
	}

	if err := ic.resolvePendingSkins(); err != nil {
		return err
	}

	for _, scene := range scenes {
		scene.Walk(newSceneCollector(scene).visit)
		ic.asset.AddScene(scene)
	}

	defaultScene := 0
	if ic.doc.Scene != nil {
		defaultScene = int(*ic.doc.Scene)
	}
	ic.asset.SetDefaultScene(defaultScene)
	return nil
}

// resolvePendingSkins attaches the skins of every node built so far.
// Skins reference joints anywhere in the document, including ancestors of the skinned node,
// so importing one can build further skinned nodes; the queue is drained until it stays empty.
func (ic *importContext) resolvePendingSkins() error {
	for i := 0; i < len(ic.pendingSkins); i++ {
		p := ic.pendingSkins[i]
		skin, err := ic.importSkin(p.index)
		if err != nil {
			return err
		}
		attachSkin(p.node, skin)
	}
	ic.pendingSkins = ic.pendingSkins[:0]
	return nil
}

// parentlessNodes returns the indices of nodes no other node lists as a child.
func parentlessNodes(doc *gltf.Document) []int {
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i, p := range hasParent {
		if !p {
			roots = append(roots, i)
		}
	}
	return roots
}

// buildNode returns the node for glTF node index, building it and its subtree on first use.
//
// Parameters:
//   - index: the glTF node index
//
// Returns:
//   - *model.Node: the memoized node
//   - error: FormatError if the subtree is invalid or refers back to a node under construction
func (ic *importContext) buildNode(index int) (*model.Node, error) {
	subject := fmt.Sprintf("node %d", index)
	if index < 0 || index >= len(ic.doc.Nodes) {
		return nil, newFormatError(ErrInvalidIndex, subject, "node does not exist")
	}
	if ic.building[index] {
		return nil, newFormatError(ErrCyclicNode, subject, "node is its own ancestor")
	}
	if n, ok := ic.nodes[index]; ok {
		return n, nil
	}

	ic.building[index] = true
	defer delete(ic.building, index)

	gn := ic.doc.Nodes[index]
	node := model.NewNode(common.Coalesce(gn.Name, fmt.Sprintf("node_%d", index)), index)
	node.Transform = nodeTransform(gn)

	if gn.Mesh != nil {
		if err := ic.attachMesh(node, gn); err != nil {
			return nil, err
		}
	}
	if gn.Skin != nil {
		ic.pendingSkins = append(ic.pendingSkins, pendingSkin{node: node, index: int(*gn.Skin)})
	}
	if gn.Camera != nil {
		camera, err := ic.importCamera(int(*gn.Camera))
		if err != nil {
			return nil, err
		}
		node.Camera = camera
	}

	var ref extLightRef
	found, err := lookupExtension(gn.Extensions, ExtLightsPunctual, &ref)
	if err != nil {
		return nil, err
	}
	if found && ref.Light != nil {
		if *ref.Light < 0 || *ref.Light >= len(ic.lights) {
			return nil, newFormatError(ErrInvalidIndex, subject, "light %d does not exist", *ref.Light)
		}
		light := ic.lights[*ref.Light]
		node.Light = &light
	}

	for _, c := range gn.Children {
		child, err := ic.buildNode(int(c))
		if err != nil {
			return nil, err
		}
		node.AddChild(child)
	}

	ic.nodes[index] = node
	return node, nil
}

// nodeTransform returns the local transform of gn. A non-identity matrix takes precedence over TRS.
func nodeTransform(gn *gltf.Node) model.Transform {
	var m [16]float32
	for i, v := range gn.MatrixOrDefault() {
		m[i] = float32(v)
	}
	if !common.IsIdentity4(m) {
		t, r, s := common.DecomposeMatrix(m)
		return model.Transform{Translation: t, Rotation: r, Scale: s}
	}

	var tr model.Transform
	for i, v := range gn.TranslationOrDefault() {
		tr.Translation[i] = float32(v)
	}
	for i, v := range gn.RotationOrDefault() {
		tr.Rotation[i] = float32(v)
	}
	for i, v := range gn.ScaleOrDefault() {
		tr.Scale[i] = float32(v)
	}
	return tr
}

// attachMesh instantiates the mesh parts of gn on node and sets up its morph state.
func (ic *importContext) attachMesh(node *model.Node, gn *gltf.Node) error {
	meshIndex := int(*gn.Mesh)
	templates, err := ic.importMesh(meshIndex)
	if err != nil {
		return err
	}

	targets := 0
	for _, t := range templates {
		node.Parts = append(node.Parts, &model.NodePart{
			MeshPart:     t.MeshPart,
			Material:     t.Material,
			MorphTargets: t.MorphTargets,
		})
		targets = max(targets, t.MorphTargets)
	}
	if targets == 0 {
		return nil
	}

	gm := ic.doc.Meshes[meshIndex]
	weights := make([]float32, targets)
	source := gn.Weights
	if len(source) == 0 {
		source = gm.Weights
	}
	for i := range min(len(source), targets) {
		weights[i] = float32(source[i])
	}

	node.Morph = &model.MorphState{
		Weights:     model.NewWeightVector(weights),
		TargetNames: targetNames(gm.Extras, targets),
	}
	return nil
}

// targetNames reads the conventional "targetNames" list from mesh extras.
func targetNames(extras any, targets int) []string {
	m, ok := extras.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := m["targetNames"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, targets)
	for _, v := range list[:min(len(list), targets)] {
		s, _ := v.(string)
		names = append(names, s)
	}
	return names
}

// importCamera converts glTF camera index.
func (ic *importContext) importCamera(index int) (*model.Camera, error) {
	subject := fmt.Sprintf("camera %d", index)
	if index < 0 || index >= len(ic.doc.Cameras) {
		return nil, newFormatError(ErrInvalidIndex, subject, "camera does not exist")
	}
	gc := ic.doc.Cameras[index]
	camera := &model.Camera{Name: common.Coalesce(gc.Name, fmt.Sprintf("camera_%d", index))}

	switch {
	case gc.Perspective != nil:
		p := gc.Perspective
		camera.Projection = model.ProjectionPerspective
		camera.YFov = float32(p.Yfov)
		camera.ZNear = float32(p.Znear)
		if p.AspectRatio != nil {
			camera.AspectRatio = float32(*p.AspectRatio)
		}
		if p.Zfar != nil {
			camera.ZFar = float32(*p.Zfar)
		}
	case gc.Orthographic != nil:
		o := gc.Orthographic
		camera.Projection = model.ProjectionOrthographic
		camera.XMag = float32(o.Xmag)
		camera.YMag = float32(o.Ymag)
		camera.ZNear = float32(o.Znear)
		camera.ZFar = float32(o.Zfar)
	default:
		return nil, newFormatError(ErrUnknownCameraType, subject, "camera has neither perspective nor orthographic settings")
	}
	return camera, nil
}

// documentLights decodes the KHR_lights_punctual light list of the document.
func (ic *importContext) documentLights() ([]model.Light, error) {
	var payload extLights
	found, err := lookupExtension(ic.doc.Extensions, ExtLightsPunctual, &payload)
	if err != nil || !found {
		return nil, err
	}

	lights := make([]model.Light, len(payload.Lights))
	for i, l := range payload.Lights {
		light := model.Light{
			Name:           common.Coalesce(l.Name, fmt.Sprintf("light_%d", i)),
			Color:          [3]float32{1, 1, 1},
			Intensity:      1,
			OuterConeAngle: 0.785398163397448, // pi / 4
		}
		if l.Color != nil {
			light.Color = *l.Color
		}
		if l.Intensity != nil {
			light.Intensity = *l.Intensity
		}
		if l.Range != nil {
			light.Range = *l.Range
		}

		switch l.Type {
		case "directional":
			light.Type = model.LightDirectional
		case "point":
			light.Type = model.LightPoint
			light.Intensity /= lightIntensityDivisor
		case "spot":
			light.Type = model.LightSpot
			light.Intensity /= lightIntensityDivisor
			if l.Spot != nil {
				if l.Spot.InnerConeAngle != nil {
					light.InnerConeAngle = *l.Spot.InnerConeAngle
				}
				if l.Spot.OuterConeAngle != nil {
					light.OuterConeAngle = *l.Spot.OuterConeAngle
				}
			}
		default:
			return nil, newFormatError(ErrMalformed, fmt.Sprintf("light %d", i), "unknown light type %q", l.Type)
		}
		lights[i] = light
	}
	return lights, nil
}
