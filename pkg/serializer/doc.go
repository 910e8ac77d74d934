// Package serializer writes run reports in JSON, YAML or table form.
//
// Destinations:
//   - stdout (empty destination)
//   - a file path
//   - a Kubernetes ConfigMap addressed as cm://namespace/name
//
// Values implementing Tabular render as rows under their own header in table
// format; other values are flattened to sorted FIELD/VALUE pairs.
//
//	w, err := serializer.NewReportWriter(serializer.FormatYAML, "cm://ci/deploy-report", nil)
//	if err != nil {
//		return err
//	}
//	if c, ok := w.(serializer.Closer); ok {
//		defer c.Close()
//	}
//	return w.Serialize(ctx, report)
package serializer
