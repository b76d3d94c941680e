// Package navigation decides which navigation links a viewer sees.
//
// A Shell mounts one Instance per rendered view. Mounting starts a feature
// flag fetch and an access resolution side by side; both fail closed, so a
// failed fetch hides the optional links and a failed resolution hides the
// content management link. Render is the pure function from the collected
// State to the visible links.
package navigation
