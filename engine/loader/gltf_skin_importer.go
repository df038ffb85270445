package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/qmuntal/gltf"
)

// importSkin resolves the joints and inverse bind matrices of glTF skin index.
// Joints that are not reachable from any scene are still built, so a skin can reference them.
//
// Parameters:
//   - index: the glTF skin index
//
// Returns:
//   - *model.Skin: the deduplicated skin
//   - error: FormatError for bad joint references or a bad matrix accessor
func (ic *importContext) importSkin(index int) (*model.Skin, error) {
	if s, ok := ic.skins[index]; ok {
		return s, nil
	}

	subject := fmt.Sprintf("skin %d", index)
	if index < 0 || index >= len(ic.doc.Skins) {
		return nil, newFormatError(ErrInvalidIndex, subject, "skin does not exist")
	}
	gs := ic.doc.Skins[index]

	skin := &model.Skin{
		Name:                gs.Name,
		Joints:              make([]*model.Node, len(gs.Joints)),
		InverseBindMatrices: make([][16]float32, len(gs.Joints)),
	}
	for i, j := range gs.Joints {
		joint, err := ic.buildNode(int(j))
		if err != nil {
			return nil, err
		}
		skin.Joints[i] = joint
		skin.InverseBindMatrices[i] = common.Identity4()
	}

	if gs.InverseBindMatrices != nil {
		accessor := int(*gs.InverseBindMatrices)
		acc, err := ic.reader.accessor(accessor)
		if err != nil {
			return nil, err
		}
		if acc.Type != gltf.AccessorMat4 {
			return nil, newFormatError(ErrBadComponentType, subject, "inverse bind matrices must be MAT4, got %s", accessorTypeName(acc.Type))
		}
		values, err := ic.reader.ReadFloats(accessor)
		if err != nil {
			return nil, err
		}
		if len(values) < len(gs.Joints)*16 {
			return nil, newFormatError(ErrMalformed, subject, "%d inverse bind matrices for %d joints", len(values)/16, len(gs.Joints))
		}
		for i := range skin.InverseBindMatrices {
			copy(skin.InverseBindMatrices[i][:], values[i*16:(i+1)*16])
		}
	}

	ic.skins[index] = skin
	ic.asset.TrackBones(len(skin.Joints))
	return skin, nil
}

// attachSkin binds skin to every part of node.
func attachSkin(node *model.Node, skin *model.Skin) {
	node.Skin = skin
	for _, part := range node.Parts {
		part.Bones = skin.Joints
		part.InverseBindMatrices = make(map[*model.Node][16]float32, len(skin.Joints))
		for i, joint := range skin.Joints {
			part.InverseBindMatrices[joint] = skin.InverseBindMatrices[i]
		}
	}
}
