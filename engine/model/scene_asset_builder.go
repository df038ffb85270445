package model

// SceneAssetBuilderOption is a function that configures a SceneAsset during construction.
type SceneAssetBuilderOption func(*SceneAsset)

// WithName is an option builder that sets the name of the asset.
//
// Parameters:
//   - name: the asset identifier, usually the source path
//
// Returns:
//   - SceneAssetBuilderOption: a function that applies the name option to an asset
func WithName(name string) SceneAssetBuilderOption {
	return func(a *SceneAsset) {
		a.name = name
	}
}

// WithDefaultScene is an option builder that selects the scene returned by SceneAsset.Scene.
//
// Parameters:
//   - index: the scene index
//
// Returns:
//   - SceneAssetBuilderOption: a function that applies the default scene option to an asset
func WithDefaultScene(index int) SceneAssetBuilderOption {
	return func(a *SceneAsset) {
		a.defaultScene = index
	}
}
