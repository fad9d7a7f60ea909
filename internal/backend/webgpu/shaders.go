//go:build windows

package webgpu

import "fmt"

// WGSL compute shaders for jagged operations.
// Using string constants instead of embed for simplicity.

// workgroupSize is the number of threads per 1-D workgroup.
const workgroupSize = 256

// Jagged kernels use 2-D workgroups: x spans the inner channel dimension
// (one warp wide), y spans rows of the outer × folded iteration space.
const (
	jaggedWorkgroupX = 32
	jaggedWorkgroupY = 8
)

// addShader performs element-wise addition: result = a + b.
const addShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] + b[idx];
    }
}
`

// jaggedHeader declares the bindings and the tree-walk resolver shared by
// the three jagged kernel shapes. The offsets arrays for all depths are
// concatenated into one buffer; meta holds the D dense extents followed by
// the D start positions of each depth's offsets slice.
const jaggedHeader = `
@group(0) @binding(0) var<storage, read> xvals: array<f32>;
@group(0) @binding(1) var<storage, read> yvals: array<f32>;
@group(0) @binding(2) var<storage, read> offsets: array<i32>;
@group(0) @binding(3) var<storage, read> meta: array<u32>;
@group(0) @binding(4) var<storage, read_write> out: array<f32>;

struct Params {
    outer: u32,
    folded: u32,
    inner: u32,
    depth: u32,
    padding: f32,
}
@group(0) @binding(5) var<uniform> params: Params;

// Resolves a (batch index, flattened jagged coordinate) pair to a physical
// value-buffer row. Returns (row, 1u) when the coordinate falls beyond a
// segment's length.
fn resolve(outer_idx: u32, flat0: u32) -> vec2<u32> {
    var coord: array<u32, 5>;
    var flat = flat0;
    for (var d: i32 = i32(params.depth) - 1; d >= 0; d--) {
        let dim = meta[u32(d)];
        coord[u32(d)] = flat %% dim;
        flat = flat / dim;
    }
    var off = outer_idx;
    for (var d: u32 = 0u; d < params.depth; d++) {
        let start = meta[params.depth + d];
        let begin = u32(offsets[start + off]);
        let end = u32(offsets[start + off + 1u]);
        if (coord[d] >= end - begin) {
            return vec2<u32>(0u, 1u);
        }
        off = begin + coord[d];
    }
    return vec2<u32>(off, 0u);
}
`

// jaggedDenseOutputShaderTemplate writes combinator(x, y) to the dense
// logical position for every (row, channel) pair, substituting the padding
// value for x at masked positions.
const jaggedDenseOutputShaderTemplate = jaggedHeader + `
@compute @workgroup_size(32, 8)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let c = gid.x;
    let row = gid.y;
    if (c >= params.inner || row >= params.outer * params.folded) {
        return;
    }
    let r = resolve(row / params.folded, row %% params.folded);
    var x = params.padding;
    if (r.y == 0u) {
        x = xvals[r.x * params.inner + c];
    }
    let y = yvals[row * params.inner + c];
    out[row * params.inner + c] = %s;
}
`

// jaggedJaggedOutputShaderTemplate writes combinator(x, y) back into the
// value buffer at the resolved physical row; masked positions keep the
// caller-supplied initial output contents.
const jaggedJaggedOutputShaderTemplate = jaggedHeader + `
@compute @workgroup_size(32, 8)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let c = gid.x;
    let row = gid.y;
    if (c >= params.inner || row >= params.outer * params.folded) {
        return;
    }
    let r = resolve(row / params.folded, row %% params.folded);
    if (r.y != 0u) {
        return;
    }
    let x = xvals[r.x * params.inner + c];
    let y = yvals[row * params.inner + c];
    out[r.x * params.inner + c] = %s;
}
`

// jaggedJaggedDenseShaderTemplate combines two jagged operands sharing one
// set of offsets into a dense result; masked positions receive the padding
// value.
const jaggedJaggedDenseShaderTemplate = jaggedHeader + `
@compute @workgroup_size(32, 8)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let c = gid.x;
    let row = gid.y;
    if (c >= params.inner || row >= params.outer * params.folded) {
        return;
    }
    let r = resolve(row / params.folded, row %% params.folded);
    if (r.y != 0u) {
        out[row * params.inner + c] = params.padding;
        return;
    }
    let x = xvals[r.x * params.inner + c];
    let y = yvals[r.x * params.inner + c];
    out[row * params.inner + c] = %s;
}
`

// combinatorExprs maps a combinator name to its WGSL expression over the
// resolved x and y operands.
var combinatorExprs = map[string]string{
	"select_left":  "x",
	"select_right": "y",
	"add":          "x + y",
	"mul":          "x * y",
}

// jaggedShader instantiates one of the jagged kernel templates with a
// combinator expression. The (shape, combinator) pair names the cached
// shader and pipeline.
func jaggedShader(template, shape, combinator string) (name, code string) {
	return shape + "_" + combinator, fmt.Sprintf(template, combinatorExprs[combinator])
}

// bvjForwardShader computes the batched dense-vector × jagged-matrix
// product, one thread per output element.
const bvjForwardShader = `
@group(0) @binding(0) var<storage, read> v: array<f32>;
@group(0) @binding(1) var<storage, read> a: array<f32>;
@group(0) @binding(2) var<storage, read> offsets: array<i32>;
@group(0) @binding(3) var<storage, read_write> out: array<f32>;

struct Params {
    batch: u32,
    heads: u32,
    dim: u32,
    max_len: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let hd = params.heads * params.dim;
    let idx = gid.x;
    if (idx >= params.batch * hd) {
        return;
    }
    let b = idx / hd;
    let h = (idx % hd) / params.dim;
    let begin = u32(offsets[b]);
    let length = min(u32(offsets[b + 1u]) - begin, params.max_len);
    var acc = 0.0;
    for (var l: u32 = 0u; l < length; l++) {
        acc += v[(b * params.heads + h) * params.max_len + l] * a[(begin + l) * hd + (idx % hd)];
    }
    out[idx] = acc;
}
`

// bvjVBackwardShader computes the vector gradient of the batched product,
// one thread per (batch*head, position) element.
const bvjVBackwardShader = `
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> a: array<f32>;
@group(0) @binding(2) var<storage, read> offsets: array<i32>;
@group(0) @binding(3) var<storage, read_write> out: array<f32>;

struct Params {
    batch: u32,
    heads: u32,
    dim: u32,
    max_len: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.x;
    if (idx >= params.batch * params.heads * params.max_len) {
        return;
    }
    let l = idx % params.max_len;
    let bh = idx / params.max_len;
    let b = bh / params.heads;
    let h = bh % params.heads;
    let begin = u32(offsets[b]);
    let length = min(u32(offsets[b + 1u]) - begin, params.max_len);
    if (l >= length) {
        out[idx] = 0.0;
        return;
    }
    let hd = params.heads * params.dim;
    var acc = 0.0;
    for (var d: u32 = 0u; d < params.dim; d++) {
        acc += grad[b * hd + h * params.dim + d] * a[(begin + l) * hd + h * params.dim + d];
    }
    out[idx] = acc;
}
`

// bvjMatBackwardShader scatters the outer product of v and grad into the
// jagged matrix gradient, one thread per value-row element. The owning
// batch is found by scanning the offsets; rows past a segment's max_len
// window stay zero.
const bvjMatBackwardShader = `
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> v: array<f32>;
@group(0) @binding(2) var<storage, read> offsets: array<i32>;
@group(0) @binding(3) var<storage, read_write> out: array<f32>;

struct Params {
    batch: u32,
    heads: u32,
    dim: u32,
    max_len: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let hd = params.heads * params.dim;
    let idx = gid.x;
    let total = u32(offsets[params.batch]);
    if (idx >= total * hd) {
        return;
    }
    let row = idx / hd;
    let h = (idx % hd) / params.dim;
    var b: u32 = 0u;
    for (var i: u32 = 0u; i < params.batch; i++) {
        if (u32(offsets[i]) <= row && row < u32(offsets[i + 1u])) {
            b = i;
            break;
        }
    }
    let l = row - u32(offsets[b]);
    if (l >= params.max_len) {
        out[idx] = 0.0;
        return;
    }
    out[idx] = v[(b * params.heads + h) * params.max_len + l] * grad[b * hd + (idx % hd)];
}
`
