// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gemmshapes provides the weight-matrix shapes of the linear
// projections found in published transformer language models, grouped
// into named model profiles.
//
// Every profile holds exactly four shapes, in projection order:
//   - GateUp: the fused gate and up projections of the feed-forward block
//   - Down:   the feed-forward down projection
//   - QKV:    the fused query/key/value projection
//   - Output: the attention output projection
//
// The table is immutable and safe for concurrent use. GEMM drivers
// iterate it directly with Config or ActiveProfiles, or derive sized
// problems with Problems:
//
//	for _, p := range gemmshapes.ActiveProfiles() {
//		probs, _ := p.Problems(128)
//		for _, pr := range probs {
//			fmt.Println(pr.Label(), pr.FLOPs())
//		}
//	}
package gemmshapes
