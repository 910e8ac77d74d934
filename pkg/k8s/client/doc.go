// Package client builds Kubernetes clients for the secret-backed credential store.
//
// Kubeconfig resolution order:
//   - an explicit path (the --kubeconfig flag or k8s:// URI query)
//   - the KUBECONFIG environment variable
//   - ~/.kube/config when it exists
//   - in-cluster service account configuration
//
// Default returns a process-wide client built once; New builds a fresh one:
//
//	cs, err := client.New(kubeconfig)
//	if err != nil {
//	    return fmt.Errorf("failed to create kubernetes client: %w", err)
//	}
//	secret, err := cs.CoreV1().Secrets(ns).Get(ctx, name, metav1.GetOptions{})
//
// Interface aliases kubernetes.Interface so tests can pass
// k8s.io/client-go/kubernetes/fake clientsets.
package client
