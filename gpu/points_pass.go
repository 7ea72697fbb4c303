package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/particlefield/assets"
	"github.com/gekko3d/particlefield/core"
	"github.com/gekko3d/particlefield/field"
	"github.com/gekko3d/particlefield/shaders"
)

const (
	DepthFormat = wgpu.TextureFormatDepth24Plus

	// Vertices per sprite quad, expanded in the vertex shader.
	quadVertices = 6
	attrStride   = uint64(field.Stride * 4)
)

// PointsRenderPass draws a ParticleSet as instanced sprite quads. Positions
// and colors live in two instance-rate vertex buffers read by matching index.
type PointsRenderPass struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Pipeline  *wgpu.RenderPipeline
	BindGroup *wgpu.BindGroup
	Sampler   *wgpu.Sampler

	UniformBuf  *wgpu.Buffer
	PositionBuf *wgpu.Buffer
	ColorBuf    *wgpu.Buffer
	Count       uint32

	DepthTexture *wgpu.Texture
	DepthView    *wgpu.TextureView

	whiteTex  *wgpu.Texture
	white     *wgpu.TextureView
	mapTex    *wgpu.Texture
	mapView   *wgpu.TextureView
	alphaTex  *wgpu.Texture
	alphaView *wgpu.TextureView
}

func NewPointsRenderPass(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, material core.PointsMaterial) (*PointsRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "PointsShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PointsWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("points shader: %w", err)
	}
	defer shaderModule.Release()

	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if bs, ok := material.BlendState(); ok {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: blendFactor(bs.Color.Src),
				DstFactor: blendFactor(bs.Color.Dst),
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: blendFactor(bs.Alpha.Src),
				DstFactor: blendFactor(bs.Alpha.Dst),
			},
		}
	}

	attrLayout := func(location uint32) wgpu.VertexBufferLayout {
		return wgpu.VertexBufferLayout{
			ArrayStride: attrStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{
				{
					Format:         wgpu.VertexFormatFloat32x3,
					Offset:         0,
					ShaderLocation: location,
				},
			},
		}
	}

	stencil := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "PointsPipeline",
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				attrLayout(0), // position
				attrLayout(1), // color
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: material.DepthWrite,
			DepthCompare:      depthCompare(material.DepthCompare()),
			StencilFront:      stencil,
			StencilBack:       stencil,
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("points pipeline: %w", err)
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("points sampler: %w", err)
	}

	uniformBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "PointsUB",
		Size:  core.PointsUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("points uniforms: %w", err)
	}

	p := &PointsRenderPass{
		Device:     device,
		Queue:      queue,
		Pipeline:   pipeline,
		Sampler:    sampler,
		UniformBuf: uniformBuf,
	}

	// 1x1 white stands in for unset maps.
	p.whiteTex, p.white, err = p.uploadTexture("White", []uint8{255, 255, 255, 255}, 1, 1)
	if err != nil {
		return nil, err
	}
	p.mapView, p.alphaView = p.white, p.white

	if err := p.rebuildBindGroup(); err != nil {
		return nil, err
	}
	return p, nil
}

// Upload copies both attribute buffers to the GPU. The set is not retained.
func (p *PointsRenderPass) Upload(set field.ParticleSet) error {
	if len(set.Positions) != set.Len() || len(set.Colors) != set.Len() {
		return fmt.Errorf("points upload: buffer length mismatch for %d particles", set.Count)
	}

	p.Count = uint32(set.Count)
	if set.Count == 0 {
		return nil
	}

	var err error
	if p.PositionBuf, err = p.writeVertexBuffer("PositionVB", p.PositionBuf, set.Positions); err != nil {
		return err
	}
	if p.ColorBuf, err = p.writeVertexBuffer("ColorVB", p.ColorBuf, set.Colors); err != nil {
		return err
	}
	return nil
}

func (p *PointsRenderPass) writeVertexBuffer(label string, buf *wgpu.Buffer, data []float32) (*wgpu.Buffer, error) {
	size := uint64(len(data)) * 4
	if buf == nil || buf.GetSize() < size {
		if buf != nil {
			buf.Release()
		}
		var err error
		buf, err = p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
	}
	bytes := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), size)
	if err := p.Queue.WriteBuffer(buf, 0, bytes); err != nil {
		return nil, fmt.Errorf("%s write: %w", label, err)
	}
	return buf, nil
}

// SetTextures binds the color map and alpha map. Nil assets fall back to
// white. On error the previously bound maps stay in place.
func (p *PointsRenderPass) SetTextures(colorMap, alphaMap *assets.TextureAsset) error {
	var mapTex, alphaTex *wgpu.Texture
	mapView, alphaView := p.white, p.white
	discard := func() {
		if mapTex != nil {
			mapView.Release()
			mapTex.Release()
		}
	}

	var err error
	if colorMap != nil {
		mapTex, mapView, err = p.uploadTexture("Map", colorMap.Texels, colorMap.Width, colorMap.Height)
		if err != nil {
			return err
		}
	}
	if alphaMap != nil {
		alphaTex, alphaView, err = p.uploadTexture("AlphaMap", alphaMap.Texels, alphaMap.Width, alphaMap.Height)
		if err != nil {
			discard()
			return err
		}
	}

	p.releaseTextures()
	p.mapTex, p.mapView = mapTex, mapView
	p.alphaTex, p.alphaView = alphaTex, alphaView
	return p.rebuildBindGroup()
}

func (p *PointsRenderPass) uploadTexture(label string, texels []uint8, w, h uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("texture %s: %w", label, err)
	}
	err = p.Queue.WriteTexture(tex.AsImageCopy(), texels, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  w * 4,
		RowsPerImage: h,
	}, &wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1})
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("texture %s write: %w", label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("texture %s view: %w", label, err)
	}
	return tex, view, nil
}

// releaseTextures drops the bound maps and rebinds white. The white texture
// itself lives until Release.
func (p *PointsRenderPass) releaseTextures() {
	if p.mapTex != nil {
		p.mapView.Release()
		p.mapTex.Release()
		p.mapTex = nil
	}
	if p.alphaTex != nil {
		p.alphaView.Release()
		p.alphaTex.Release()
		p.alphaTex = nil
	}
	p.mapView, p.alphaView = p.white, p.white
}

func (p *PointsRenderPass) rebuildBindGroup() error {
	if p.BindGroup != nil {
		p.BindGroup.Release()
	}
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "PointsBG",
		Layout: p.Pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.UniformBuf, Size: core.PointsUniformsSize},
			{Binding: 1, Sampler: p.Sampler},
			{Binding: 2, TextureView: p.mapView},
			{Binding: 3, TextureView: p.alphaView},
		},
	})
	if err != nil {
		return fmt.Errorf("points bind group: %w", err)
	}
	p.BindGroup = bg
	return nil
}

// Resize recreates the depth target. Zero sizes are ignored.
func (p *PointsRenderPass) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if p.DepthView != nil {
		p.DepthView.Release()
	}
	if p.DepthTexture != nil {
		p.DepthTexture.Release()
	}

	var err error
	p.DepthTexture, err = p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "PointsDepth",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("depth texture: %w", err)
	}
	p.DepthView, err = p.DepthTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("depth view: %w", err)
	}
	return nil
}

func (p *PointsRenderPass) UpdateUniforms(data []byte) error {
	return p.Queue.WriteBuffer(p.UniformBuf, 0, data)
}

// DepthAttachment clears depth to the far plane each frame.
func (p *PointsRenderPass) DepthAttachment() *wgpu.RenderPassDepthStencilAttachment {
	if p.DepthView == nil {
		return nil
	}
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            p.DepthView,
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}
}

func (p *PointsRenderPass) Draw(pass *wgpu.RenderPassEncoder) {
	if p.Count == 0 || p.PositionBuf == nil || p.ColorBuf == nil {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.SetVertexBuffer(0, p.PositionBuf, 0, uint64(p.Count)*attrStride)
	pass.SetVertexBuffer(1, p.ColorBuf, 0, uint64(p.Count)*attrStride)
	pass.Draw(quadVertices, p.Count, 0, 0)
}

func (p *PointsRenderPass) Release() {
	p.releaseTextures()
	if p.white != nil {
		p.white.Release()
		p.whiteTex.Release()
	}
	for _, b := range []*wgpu.Buffer{p.PositionBuf, p.ColorBuf, p.UniformBuf} {
		if b != nil {
			b.Release()
		}
	}
	if p.DepthView != nil {
		p.DepthView.Release()
	}
	if p.DepthTexture != nil {
		p.DepthTexture.Release()
	}
	if p.BindGroup != nil {
		p.BindGroup.Release()
	}
	if p.Sampler != nil {
		p.Sampler.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}

func blendFactor(f core.BlendFactor) wgpu.BlendFactor {
	switch f {
	case core.BlendOne:
		return wgpu.BlendFactorOne
	case core.BlendSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case core.BlendOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	default:
		return wgpu.BlendFactorZero
	}
}

func depthCompare(c core.DepthCompare) wgpu.CompareFunction {
	if c == core.CompareAlways {
		return wgpu.CompareFunctionAlways
	}
	return wgpu.CompareFunctionLessEqual
}
