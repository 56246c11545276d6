package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/meshpbr"
)

const (
	Running meshpbr.State = iota
	Shutdown
)

var (
	sunColor     = mgl32.Vec3{0.98, 0.92, 0.89}
	sunDirection = mgl32.Vec3{0.6, -1, -0.8}
	// meshes are pushed back so the default camera at the origin sees them
	meshOffset = mgl32.Vec3{0, 0, -4}
)

const sunIlluminance = 110000

// Config is what the command line controls.
type Config struct {
	Title        string
	IBLDirectory string
	SplitView    bool
	Scale        float32
	Width        int
	Height       int
	Debug        bool
}

type PbrConfig struct {
	MetallicRoughnessMap string
	BaseColorMap         string
}

// samplePbr owns everything setup creates; cleanup releases it.
// Pointers are non-nil only after a successful load.
type samplePbr struct {
	filenames            []string
	config               Config
	pbrConfig            PbrConfig
	materialInstances    map[string]*meshpbr.MaterialInstance
	meshSet              *meshpbr.MeshSet
	material             *meshpbr.Material
	light                meshpbr.EntityId
	hasLight             bool
	metallicRoughnessMap *meshpbr.Texture
	baseColorMap         *meshpbr.Texture
}

type SamplePbrModule struct {
	Filenames []string
	Config    Config
	PbrConfig PbrConfig
}

func (mod SamplePbrModule) Install(app *meshpbr.App, cmd *meshpbr.Commands) {
	cmd.AddResources(&samplePbr{
		filenames:         mod.Filenames,
		config:            mod.Config,
		pbrConfig:         mod.PbrConfig,
		materialInstances: make(map[string]*meshpbr.MaterialInstance),
	})
	app.UseSystem(
		meshpbr.System(setupSystem).
			InStage(meshpbr.Update).
			InState(meshpbr.OnEnter(Running)),
	)
	app.UseSystem(
		meshpbr.System(cleanupSystem).
			InStage(meshpbr.Update).
			InState(meshpbr.OnExit(Shutdown)),
	)
}

// loadTexture returns nil when path is empty, missing or not a decodable image.
func loadTexture(assets *meshpbr.AssetServer, log meshpbr.Logger, path string, sRGB bool) *meshpbr.Texture {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Warnf("The texture %s does not exist", path)
		return nil
	}
	tex, err := assets.LoadTextureFile(path, sRGB)
	if err != nil {
		log.Warnf("The texture %s could not be loaded", path)
		log.Debugf("%v", err)
		return nil
	}
	log.Debugf("Loaded texture %s: %dx%d, %d levels", path, tex.Width, tex.Height, tex.Levels)
	return tex
}

func setupSystem(state *samplePbr, assets *meshpbr.AssetServer, cmd *meshpbr.Commands) {
	log := cmd.Logger()

	state.baseColorMap = loadTexture(assets, log, state.pbrConfig.BaseColorMap, true)
	state.metallicRoughnessMap = loadTexture(assets, log, state.pbrConfig.MetallicRoughnessMap, false)

	hasBaseColorMap := state.baseColorMap != nil
	hasMetallicRoughnessMap := state.metallicRoughnessMap != nil

	pkg, err := buildMaterial(hasBaseColorMap, hasMetallicRoughnessMap)
	if err != nil {
		log.Errorf("Could not build %s: %v", materialName, err)
		cmd.Exit()
		return
	}
	state.material = assets.CreateMaterial(pkg)
	instance := state.material.CreateInstance()
	state.materialInstances[materialName] = instance

	sampler := meshpbr.NewTextureSampler(meshpbr.MinFilterLinearMipmapLinear, meshpbr.MagFilterLinear, meshpbr.WrapModeRepeat)
	sampler.SetAnisotropy(8)

	if hasBaseColorMap {
		if err := instance.SetParameter(baseColorParam, state.baseColorMap, sampler); err != nil {
			log.Errorf("%v", err)
		}
	}
	if hasMetallicRoughnessMap {
		if err := instance.SetParameter(metallicRoughnessParam, state.metallicRoughnessMap, sampler); err != nil {
			log.Errorf("%v", err)
		}
	}

	state.meshSet = meshpbr.NewMeshSet(assets)
	for _, filename := range state.filenames {
		if err := state.meshSet.AddFromFile(cmd, filename, state.materialInstances, true); err != nil {
			log.Errorf("Could not load %s: %v", filename, err)
		}
	}
	for _, warning := range state.meshSet.Warnings() {
		log.Debugf("%s", warning)
	}

	// spawned renderables only become queryable once flushed
	cmd.Flush()
	placement := meshpbr.ScaleTranslate(state.config.Scale, meshOffset)
	meshpbr.MakeQuery2[meshpbr.TransformComponent, meshpbr.RenderableComponent](cmd).Map(
		func(eid meshpbr.EntityId, transform *meshpbr.TransformComponent, renderable *meshpbr.RenderableComponent) bool {
			if state.meshSet.Owns(eid) {
				transform.PreMultiply(placement)
			}
			return true
		})

	state.light = cmd.AddEntity(meshpbr.NewDirectionalLight(
		meshpbr.SRGBToLinear(sunColor),
		sunIlluminance,
		sunDirection,
	))
	state.hasLight = true

	log.Infof("Loaded %d renderables from %d files", len(state.meshSet.Renderables()), len(state.filenames))
}

func cleanupSystem(state *samplePbr, assets *meshpbr.AssetServer, cmd *meshpbr.Commands) {
	for name, instance := range state.materialInstances {
		assets.DestroyMaterialInstance(instance)
		delete(state.materialInstances, name)
	}
	if state.meshSet != nil {
		state.meshSet.Destroy(cmd)
		state.meshSet = nil
	}
	assets.DestroyMaterial(state.material)
	state.material = nil
	assets.DestroyTexture(state.metallicRoughnessMap)
	assets.DestroyTexture(state.baseColorMap)
	state.metallicRoughnessMap = nil
	state.baseColorMap = nil

	if state.hasLight {
		cmd.RemoveEntity(state.light)
		state.hasLight = false
	}
	cmd.Logger().Debugf("Sample resources released")
}

// newApp assembles the viewer. The renderer opens the window, so building
// requires a display.
func newApp(filenames []string, config Config, pbrConfig PbrConfig) *meshpbr.App {
	app := meshpbr.NewAppBuilder().
		UseStates(Running, Shutdown).
		UseModule(
			meshpbr.LoggingModule{Prefix: "sample_pbr", Debug: config.Debug},
			meshpbr.TimeModule{},
			meshpbr.AssetServerModule{},
		).
		Build()

	app.UsePBR(config.Width, config.Height, config.Title, config.SplitView, config.IBLDirectory)

	app.UseModules(
		meshpbr.InputModule{CloseOnEscape: true},
		meshpbr.OrbitCameraModule{Target: meshOffset, Distance: -meshOffset.Z()},
		SamplePbrModule{
			Filenames: filenames,
			Config:    config,
			PbrConfig: pbrConfig,
		},
	)
	return app
}
