// Package pose defines the keypoint vocabulary consumed by the gait
// estimators: the fixed set of tracked joints, per-frame pixel observations,
// and the bounded per-joint history buffers.
//
// Keypoints arrive from an external pose-estimation collaborator that has
// already applied its confidence threshold; a joint that is absent from a
// Keypoints map was either not detected or not trusted this frame.
package pose
